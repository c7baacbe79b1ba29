// Package collection holds the authoritative in-memory list of known files
// and the transient banner shown after each operation.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/labstack/gommon/log"
)

// DefaultMessageTTL is how long a banner stays visible.
const DefaultMessageTTL = 3 * time.Second

const (
	msgLoadFailed     = "Failed to load files. Please try again."
	msgUploadFailed   = "Failed to upload file. Please try again."
	msgDeleteFailed   = "Failed to delete file. Please try again."
	msgDownloadFailed = "Failed to download file. Please try again."
	msgDeleted        = "File deleted successfully!"
)

// ErrNotFound is returned by DeleteByID for an unknown id.
var ErrNotFound = errors.New("file not in collection")

// MessageKind distinguishes banners.
type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is a transient user-visible banner.
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// Collection is the file list view model.
type Collection struct {
	svc    client.Service
	ttl    time.Duration
	logger *log.Logger

	mu       sync.Mutex
	files    []models.FileRecord
	loading  bool
	listGen  uint64
	msg      Message
	msgGen   uint64
	msgTimer *time.Timer
}

// Option customizes a Collection.
type Option func(*Collection)

// WithMessageTTL overrides DefaultMessageTTL.
func WithMessageTTL(d time.Duration) Option {
	return func(c *Collection) { c.ttl = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Collection) { c.logger = l }
}

// New creates an empty collection backed by svc.
func New(svc client.Service, opts ...Option) *Collection {
	c := &Collection{
		svc: svc,
		ttl: DefaultMessageTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.New("collection")
	}
	return c
}

// Files returns a copy of the current list.
func (c *Collection) Files() []models.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.FileRecord(nil), c.files...)
}

// Len returns the number of files.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// Loading reports whether a list request is outstanding.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Message returns the current banner.
func (c *Collection) Message() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msg
}

// Load fetches the list for the first time.
func (c *Collection) Load(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh re-fetches the list and replaces it wholesale. When refreshes
// overlap only the latest one is applied.
func (c *Collection) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.listGen++
	gen := c.listGen
	c.loading = true
	c.mu.Unlock()

	files, err := c.svc.ListFiles(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.listGen {
		return nil
	}
	c.loading = false

	if err != nil {
		c.setMessageLocked(MessageError, msgLoadFailed)
		c.logger.Errorf("error loading files: %v", err)
		return fmt.Errorf("listing files: %w", err)
	}
	c.files = files
	return nil
}

// Upload sends file to the service and prepends the resulting record.
// Its signature matches upload.Uploader.
func (c *Collection) Upload(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error) {
	c.clearMessage()

	rec, err := c.svc.UploadFile(ctx, file)

	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(err, context.Canceled) {
		c.logger.Debugf("upload of %s cancelled", file.Name)
		return nil, err
	}
	if err != nil {
		c.setMessageLocked(MessageError, msgUploadFailed)
		c.logger.Errorf("error uploading %s: %v", file.Name, err)
		return nil, err
	}

	c.files = append([]models.FileRecord{*rec}, c.files...)
	c.setMessageLocked(MessageSuccess, fmt.Sprintf("File \"%s\" uploaded successfully!", file.Name))
	return rec, nil
}

// Delete removes every record whose FileName matches and returns how many
// were removed. Records are matched by name only, so duplicates go together.
func (c *Collection) Delete(ctx context.Context, fileName string) (int, error) {
	if err := c.svc.DeleteFile(ctx, fileName); err != nil {
		c.mu.Lock()
		c.setMessageLocked(MessageError, msgDeleteFailed)
		c.mu.Unlock()
		c.logger.Errorf("error deleting %s: %v", fileName, err)
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.removeLocked(func(r models.FileRecord) bool { return r.FileName == fileName })
	c.setMessageLocked(MessageSuccess, msgDeleted)
	return n, nil
}

// DeleteByID removes exactly the record with the given id.
func (c *Collection) DeleteByID(ctx context.Context, id int64) error {
	c.mu.Lock()
	var fileName string
	found := false
	for _, r := range c.files {
		if r.ID == id {
			fileName, found = r.FileName, true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	if err := c.svc.DeleteFile(ctx, fileName); err != nil {
		c.mu.Lock()
		c.setMessageLocked(MessageError, msgDeleteFailed)
		c.mu.Unlock()
		c.logger.Errorf("error deleting %s: %v", fileName, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(func(r models.FileRecord) bool { return r.ID == id })
	c.setMessageLocked(MessageSuccess, msgDeleted)
	return nil
}

// Download fetches a file's bytes for saving.
func (c *Collection) Download(ctx context.Context, fileName string) (*models.Blob, error) {
	blob, err := c.svc.DownloadFile(ctx, fileName)
	if err != nil {
		c.mu.Lock()
		c.setMessageLocked(MessageError, msgDownloadFailed)
		c.mu.Unlock()
		c.logger.Errorf("error downloading %s: %v", fileName, err)
		return nil, err
	}
	return blob, nil
}

// ReportErrors shows validation failures from the upload controller.
func (c *Collection) ReportErrors(errs []string) {
	if len(errs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setMessageLocked(MessageError, strings.Join(errs, ", "))
}

// ApplyEvent folds a pushed change into the list. Uploads already present
// (same id) are ignored.
func (c *Collection) ApplyEvent(ev models.FileEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case models.EventFileUploaded:
		for _, r := range c.files {
			if r.ID == ev.File.ID {
				return
			}
		}
		c.files = append([]models.FileRecord{ev.File}, c.files...)
	case models.EventFileDeleted:
		c.removeLocked(func(r models.FileRecord) bool { return r.ID == ev.File.ID })
	}
}

// Close stops the banner timer.
func (c *Collection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msgTimer != nil {
		c.msgTimer.Stop()
		c.msgTimer = nil
	}
}

func (c *Collection) removeLocked(match func(models.FileRecord) bool) int {
	kept := c.files[:0:0]
	for _, r := range c.files {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	n := len(c.files) - len(kept)
	c.files = kept
	return n
}

func (c *Collection) clearMessage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgGen++
	c.msg = Message{}
}

func (c *Collection) setMessageLocked(kind MessageKind, text string) {
	c.msgGen++
	gen := c.msgGen
	c.msg = Message{Kind: kind, Text: text}

	if c.msgTimer != nil {
		c.msgTimer.Stop()
	}
	c.msgTimer = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.msgGen == gen {
			c.msg = Message{}
		}
	})
}
