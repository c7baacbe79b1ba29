package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/models"
)

// ErrNotFound is returned when no stored file has the requested name.
var ErrNotFound = errors.New("file not found")

// Store defines the interface for file storage.
type Store interface {
	Save(ctx context.Context, originalName, contentType string, r io.Reader) (*models.FileRecord, error)
	List(ctx context.Context) ([]models.FileRecord, error)
	Get(ctx context.Context, fileName string) (*models.FileRecord, error)
	Open(ctx context.Context, fileName string) (*models.FileRecord, io.ReadCloser, error)
	Delete(ctx context.Context, fileName string) (*models.FileRecord, error)
}

// LocalStore implements Store with blobs on the local filesystem and
// metadata in an Index.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	index     Index
	now       func() time.Time
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string, index Index) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		index:     index,
		now:       time.Now,
	}, nil
}

// Save writes the blob under a fresh "<uuid><ext>" key and indexes it.
func (s *LocalStore) Save(ctx context.Context, originalName, contentType string, r io.Reader) (*models.FileRecord, error) {
	fileName := uuid.NewString() + fileutil.Extension(originalName)
	path := filepath.Join(s.uploadDir, fileName)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	hash, _ := blake2b.New256(nil)
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		if ct := fileutil.ContentType(originalName); ct != "" {
			contentType = ct
		} else if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	rec := &models.FileRecord{
		FileName:         fileName,
		OriginalFileName: originalName,
		FileSize:         size,
		UploadedAt:       s.now().UTC(),
		ContentType:      contentType,
		Checksum:         hex.EncodeToString(hash.Sum(nil)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Insert(ctx, rec); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("indexing file: %w", err)
	}

	return rec, nil
}

// List returns every stored file, newest first.
func (s *LocalStore) List(ctx context.Context) ([]models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.List(ctx)
}

// Get retrieves file metadata by storage key.
func (s *LocalStore) Get(ctx context.Context, fileName string) (*models.FileRecord, error) {
	if !validKey(fileName) {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Get(ctx, fileName)
}

// Open returns the metadata and an open reader for the blob. The caller
// closes the reader.
func (s *LocalStore) Open(ctx context.Context, fileName string) (*models.FileRecord, io.ReadCloser, error) {
	rec, err := s.Get(ctx, fileName)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.uploadDir, rec.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return rec, f, nil
}

// Delete removes a file from storage and returns its last metadata.
func (s *LocalStore) Delete(ctx context.Context, fileName string) (*models.FileRecord, error) {
	if !validKey(fileName) {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.index.Get(ctx, fileName)
	if err != nil {
		return nil, err
	}

	// A listed record must always have its blob, so unindex first.
	if err := s.index.Remove(ctx, fileName); err != nil {
		return nil, err
	}

	path := filepath.Join(s.uploadDir, fileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("deleting file: %w", err)
	}
	return rec, nil
}

// validKey rejects names that could escape the upload directory.
func validKey(fileName string) bool {
	if fileName == "" || fileName == "." || fileName == ".." {
		return false
	}
	return !strings.ContainsAny(fileName, `/\`)
}
