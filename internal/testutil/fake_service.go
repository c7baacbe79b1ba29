// fake_service.go - Scriptable client.Service for testing
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/models"
)

// ErrBackendDown is the transport failure FakeService returns when Fail is set.
var ErrBackendDown = &client.TransportError{Op: "fake", Err: errors.New("connection refused")}

// FakeService implements client.Service in memory.
type FakeService struct {
	mu         sync.Mutex
	files      []models.FileRecord
	data       map[string][]byte
	nextID     int64
	fail       bool
	calls      map[string]int
	uploadGate chan struct{}
	listHook   func(call int) ([]models.FileRecord, error)
}

// NewFakeService creates an empty fake.
func NewFakeService() *FakeService {
	return &FakeService{
		data:   make(map[string][]byte),
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// Fail makes every subsequent call return ErrBackendDown (or succeed again).
func (f *FakeService) Fail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// HoldUploads blocks UploadFile until ReleaseUploads is called.
func (f *FakeService) HoldUploads() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadGate = make(chan struct{})
}

// ReleaseUploads unblocks uploads held by HoldUploads.
func (f *FakeService) ReleaseUploads() {
	f.mu.Lock()
	gate := f.uploadGate
	f.uploadGate = nil
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// OnList overrides ListFiles; call counts from 1.
func (f *FakeService) OnList(hook func(call int) ([]models.FileRecord, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listHook = hook
}

// Calls returns how many times op was invoked.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeService) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	f.mu.Lock()
	f.calls["list"]++
	call := f.calls["list"]
	hook := f.listHook
	if f.fail {
		f.mu.Unlock()
		return nil, ErrBackendDown
	}
	out := append([]models.FileRecord(nil), f.files...)
	f.mu.Unlock()

	if hook != nil {
		return hook(call)
	}
	return out, nil
}

func (f *FakeService) UploadFile(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error) {
	f.mu.Lock()
	f.calls["upload"]++
	gate := f.uploadGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, ErrBackendDown
	}

	r, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rec := models.FileRecord{
		ID:               f.nextID,
		FileName:         fmt.Sprintf("stored-%d-%s", f.nextID, file.Name),
		OriginalFileName: file.Name,
		FileSize:         int64(len(data)),
		UploadedAt:       time.Now(),
		ContentType:      file.ContentType,
	}
	f.nextID++
	f.files = append([]models.FileRecord{rec}, f.files...)
	f.data[rec.FileName] = data
	return &rec, nil
}

func (f *FakeService) DownloadFile(ctx context.Context, fileName string) (*models.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["download"]++
	if f.fail {
		return nil, ErrBackendDown
	}

	data, ok := f.data[fileName]
	if !ok {
		return nil, &client.TransportError{Op: "download file", StatusCode: 404, Err: errors.New("file not found")}
	}
	ct := ""
	for _, rec := range f.files {
		if rec.FileName == fileName {
			ct = rec.ContentType
		}
	}
	return &models.Blob{Data: append([]byte(nil), data...), ContentType: ct}, nil
}

func (f *FakeService) DeleteFile(ctx context.Context, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.fail {
		return ErrBackendDown
	}

	kept := f.files[:0]
	for _, rec := range f.files {
		if rec.FileName != fileName {
			kept = append(kept, rec)
		}
	}
	f.files = kept
	delete(f.data, fileName)
	return nil
}

// Ensure FakeService implements client.Service
var _ client.Service = (*FakeService)(nil)

// Test Helper Methods

// AddFile seeds a record with content, keeping insertion order.
func (f *FakeService) AddFile(rec models.FileRecord, data []byte) models.FileRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.ID == 0 {
		rec.ID = f.nextID
		f.nextID++
	}
	if rec.OriginalFileName == "" {
		rec.OriginalFileName = rec.FileName
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}
	rec.FileSize = int64(len(data))
	f.files = append(f.files, rec)
	f.data[rec.FileName] = data
	return rec
}

// FileCount returns the number of stored records.
func (f *FakeService) FileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}
