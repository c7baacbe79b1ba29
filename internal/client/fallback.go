package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/filedeck/filedeck/internal/models"
	"github.com/labstack/gommon/log"
)

// Mode selects how the client reacts to an unreachable backend.
type Mode string

const (
	// ModeFailOpen substitutes simulated data for transport failures.
	ModeFailOpen Mode = "open"
	// ModeFailClosed returns transport failures to the caller.
	ModeFailClosed Mode = "closed"
	// ModeOffline never contacts a backend.
	ModeOffline Mode = "offline"
)

// ParseMode accepts "open", "closed" or "offline". Empty means ModeFailOpen.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFailOpen:
		return ModeFailOpen, nil
	case ModeFailClosed:
		return ModeFailClosed, nil
	case ModeOffline:
		return ModeOffline, nil
	}
	return "", fmt.Errorf("unknown client mode %q", s)
}

// Fallback serves from primary and, when failOpen is set, answers from
// substitute whenever primary reports a transport failure. There is no retry
// and no distinction between kinds of failure.
type Fallback struct {
	primary    Service
	substitute Service
	failOpen   bool
	logger     *log.Logger
}

// NewFallback wraps primary with substitute.
func NewFallback(primary, substitute Service, failOpen bool, logger *log.Logger) *Fallback {
	return &Fallback{
		primary:    primary,
		substitute: substitute,
		failOpen:   failOpen,
		logger:     logger,
	}
}

func (f *Fallback) degrade(err error, what string) bool {
	if !f.failOpen || !IsTransport(err) {
		return false
	}
	f.logger.Warnf("backend not available, %s: %v", what, err)
	return true
}

// ListFiles implements Service.
func (f *Fallback) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	files, err := f.primary.ListFiles(ctx)
	if err != nil && f.degrade(err, "using mock data") {
		return f.substitute.ListFiles(ctx)
	}
	return files, err
}

// UploadFile implements Service.
func (f *Fallback) UploadFile(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error) {
	rec, err := f.primary.UploadFile(ctx, file)
	if err != nil && f.degrade(err, "simulating upload") {
		return f.substitute.UploadFile(ctx, file)
	}
	return rec, err
}

// DownloadFile implements Service.
func (f *Fallback) DownloadFile(ctx context.Context, fileName string) (*models.Blob, error) {
	blob, err := f.primary.DownloadFile(ctx, fileName)
	if err != nil && f.degrade(err, "creating mock blob") {
		return f.substitute.DownloadFile(ctx, fileName)
	}
	return blob, err
}

// DeleteFile implements Service.
func (f *Fallback) DeleteFile(ctx context.Context, fileName string) error {
	err := f.primary.DeleteFile(ctx, fileName)
	if err != nil && f.degrade(err, "simulating delete") {
		return f.substitute.DeleteFile(ctx, fileName)
	}
	return err
}
