package client

import (
	"context"
	"fmt"
	"time"

	"github.com/filedeck/filedeck/internal/models"
)

// OfflineService answers every operation with simulated data so the UI stays
// usable without a backend.
type OfflineService struct {
	now func() time.Time
}

// NewOfflineService creates the simulated service.
func NewOfflineService() *OfflineService {
	return &OfflineService{now: time.Now}
}

// ListFiles returns a single placeholder file.
func (s *OfflineService) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	return []models.FileRecord{{
		ID:               1,
		FileName:         "dummy.txt",
		OriginalFileName: "dummy.txt",
		FileSize:         1024,
		UploadedAt:       s.now(),
		ContentType:      "text/plain",
	}}, nil
}

// UploadFile pretends the upload succeeded and describes the file locally.
func (s *OfflineService) UploadFile(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error) {
	now := s.now()
	return &models.FileRecord{
		ID:               now.UnixMilli(),
		FileName:         file.Name,
		OriginalFileName: file.Name,
		FileSize:         file.Size,
		UploadedAt:       now,
		ContentType:      file.ContentType,
	}, nil
}

// DownloadFile returns a short text placeholder.
func (s *OfflineService) DownloadFile(ctx context.Context, fileName string) (*models.Blob, error) {
	text := fmt.Sprintf("This is a mock file: %s\n\nBackend server is not running, so this is simulated content.", fileName)
	return &models.Blob{
		Data:        []byte(text),
		ContentType: "text/plain",
	}, nil
}

// DeleteFile does nothing.
func (s *OfflineService) DeleteFile(ctx context.Context, fileName string) error {
	return nil
}
