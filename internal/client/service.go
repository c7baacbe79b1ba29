// Package client talks to the remote file-storage API.
//
// Service is implemented three ways: HTTPService talks to a live backend,
// OfflineService produces deterministic simulated data, and Fallback
// substitutes the second for the first when a transport failure occurs.
// New assembles the stack for a Mode.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/filedeck/filedeck/internal/models"
)

// Service is the set of remote file operations the UI layers consume.
type Service interface {
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	UploadFile(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error)
	DownloadFile(ctx context.Context, fileName string) (*models.Blob, error)
	DeleteFile(ctx context.Context, fileName string) error
}

// TransportError reports a network error, timeout or non-2xx response.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
