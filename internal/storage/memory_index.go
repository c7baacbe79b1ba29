package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/filedeck/filedeck/internal/models"
)

// snapshotRow is the on-disk form of a FileRecord.
type snapshotRow struct {
	ID               int64  `msgpack:"id"`
	FileName         string `msgpack:"fn"`
	OriginalFileName string `msgpack:"on"`
	FileSize         int64  `msgpack:"sz"`
	UploadedAt       int64  `msgpack:"ua"`
	ContentType      string `msgpack:"ct"`
	LastModified     int64  `msgpack:"lm,omitempty"`
	Checksum         string `msgpack:"ck"`
}

type snapshot struct {
	NextID int64         `msgpack:"next"`
	Rows   []snapshotRow `msgpack:"rows"`
}

// MemoryIndex keeps records in a map and, when given a path, persists a
// msgpack snapshot after every change.
type MemoryIndex struct {
	mu      sync.RWMutex
	path    string
	records map[string]models.FileRecord
	nextID  int64
}

// NewMemoryIndex loads the snapshot at path if present. An empty path
// disables persistence.
func NewMemoryIndex(path string) (*MemoryIndex, error) {
	idx := &MemoryIndex{
		path:    path,
		records: make(map[string]models.FileRecord),
		nextID:  1,
	}
	if path == "" {
		return idx, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding index snapshot: %w", err)
	}
	for _, row := range snap.Rows {
		idx.records[row.FileName] = row.record()
	}
	if snap.NextID > idx.nextID {
		idx.nextID = snap.NextID
	}
	return idx, nil
}

func (m *MemoryIndex) Insert(ctx context.Context, rec *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.FileName]; exists {
		return fmt.Errorf("duplicate file name %q", rec.FileName)
	}
	rec.ID = m.nextID
	m.nextID++
	m.records[rec.FileName] = *rec
	if err := m.persistLocked(); err != nil {
		delete(m.records, rec.FileName)
		m.nextID--
		rec.ID = 0
		return err
	}
	return nil
}

func (m *MemoryIndex) List(ctx context.Context) ([]models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]models.FileRecord, 0, len(m.records))
	for _, rec := range m.records {
		list = append(list, rec)
	}
	sortNewestFirst(list)
	return list, nil
}

func (m *MemoryIndex) Get(ctx context.Context, fileName string) (*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[fileName]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryIndex) Remove(ctx context.Context, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[fileName]
	if !ok {
		return ErrNotFound
	}
	delete(m.records, fileName)
	if err := m.persistLocked(); err != nil {
		m.records[fileName] = rec
		return err
	}
	return nil
}

func (m *MemoryIndex) Close() error { return nil }

// persistLocked writes the snapshot via a temp file and rename.
func (m *MemoryIndex) persistLocked() error {
	if m.path == "" {
		return nil
	}

	snap := snapshot{NextID: m.nextID, Rows: make([]snapshotRow, 0, len(m.records))}
	for _, rec := range m.records {
		snap.Rows = append(snap.Rows, rowFromRecord(rec))
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encoding index snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".index-*")
	if err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), m.path)
}

func rowFromRecord(rec models.FileRecord) snapshotRow {
	row := snapshotRow{
		ID:               rec.ID,
		FileName:         rec.FileName,
		OriginalFileName: rec.OriginalFileName,
		FileSize:         rec.FileSize,
		UploadedAt:       rec.UploadedAt.UnixNano(),
		ContentType:      rec.ContentType,
		Checksum:         rec.Checksum,
	}
	if rec.LastModified != nil {
		row.LastModified = rec.LastModified.UnixNano()
	}
	return row
}

func (r snapshotRow) record() models.FileRecord {
	rec := models.FileRecord{
		ID:               r.ID,
		FileName:         r.FileName,
		OriginalFileName: r.OriginalFileName,
		FileSize:         r.FileSize,
		UploadedAt:       time.Unix(0, r.UploadedAt).UTC(),
		ContentType:      r.ContentType,
		Checksum:         r.Checksum,
	}
	if r.LastModified != 0 {
		lm := time.Unix(0, r.LastModified).UTC()
		rec.LastModified = &lm
	}
	return rec
}

// sortNewestFirst orders by upload time, then by ID for equal times.
func sortNewestFirst(list []models.FileRecord) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].UploadedAt.Equal(list[j].UploadedAt) {
			return list[i].UploadedAt.After(list[j].UploadedAt)
		}
		return list[i].ID > list[j].ID
	})
}
