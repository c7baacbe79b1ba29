// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/storage"
)

// MockStorage implements storage.Store in memory for testing
type MockStorage struct {
	files    []models.FileRecord // newest first
	fileData map[string][]byte
	nextID   int64
	failWith error
	mu       sync.RWMutex
}

// NewMockStorage creates an empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		fileData: make(map[string][]byte),
		nextID:   1,
	}
}

func (m *MockStorage) Save(ctx context.Context, originalName, contentType string, r io.Reader) (*models.FileRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if contentType == "" || contentType == "application/octet-stream" {
		if ct := fileutil.ContentType(originalName); ct != "" {
			contentType = ct
		}
	}
	return m.SaveBytes(originalName, contentType, data)
}

// SaveBytes stores data under a generated "mock-<id><ext>" key
func (m *MockStorage) SaveBytes(originalName, contentType string, data []byte) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	id := m.nextID
	m.nextID++
	rec := models.FileRecord{
		ID:               id,
		FileName:         fmt.Sprintf("mock-%d%s", id, fileutil.Extension(originalName)),
		OriginalFileName: originalName,
		FileSize:         int64(len(data)),
		UploadedAt:       time.Now().UTC(),
		ContentType:      contentType,
		Checksum:         fmt.Sprintf("sum-%d", id),
	}

	m.files = append([]models.FileRecord{rec}, m.files...)
	m.fileData[rec.FileName] = data
	return &rec, nil
}

func (m *MockStorage) List(ctx context.Context) ([]models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	return append([]models.FileRecord{}, m.files...), nil
}

func (m *MockStorage) Get(ctx context.Context, fileName string) (*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.files {
		if rec.FileName == fileName {
			rec := rec
			return &rec, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MockStorage) Open(ctx context.Context, fileName string) (*models.FileRecord, io.ReadCloser, error) {
	rec, err := m.Get(ctx, fileName)
	if err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	data := m.fileData[fileName]
	m.mu.RUnlock()
	return rec, io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) Delete(ctx context.Context, fileName string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	for i, rec := range m.files {
		if rec.FileName == fileName {
			m.files = append(m.files[:i], m.files[i+1:]...)
			delete(m.fileData, fileName)
			return &rec, nil
		}
	}
	return nil, storage.ErrNotFound
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// FailWith makes Save, List and Delete return err; nil restores them
func (m *MockStorage) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// GetFileData returns the stored content
func (m *MockStorage) GetFileData(fileName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[fileName]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

// GetFileCount returns the number of stored files
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
