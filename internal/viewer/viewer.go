// Package viewer resolves a stored file into something displayable.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/labstack/gommon/log"
)

// ErrLoadFailed wraps every fetch failure.
var ErrLoadFailed = errors.New("failed to load file")

// MsgLoadFailed is the banner shown for ErrLoadFailed.
const MsgLoadFailed = "Failed to load file. Please try again."

// Preview is a loaded file ready for display.
type Preview struct {
	File     models.FileRecord
	Category fileutil.Category
	Content  models.FileContent
}

// Viewer loads previews through a client.Service.
type Viewer struct {
	svc    client.Service
	logger *log.Logger
	now    func() time.Time
}

// New creates a viewer.
func New(svc client.Service, logger *log.Logger) *Viewer {
	if logger == nil {
		logger = logging.New("viewer")
	}
	return &Viewer{svc: svc, logger: logger, now: time.Now}
}

// Load downloads fileName and picks a representation from its name:
// text is decoded, images become an inline reference, everything else is
// offered as a download. There is no retry.
func (v *Viewer) Load(ctx context.Context, fileName string) (*Preview, error) {
	blob, err := v.svc.DownloadFile(ctx, fileName)
	if err != nil {
		v.logger.Errorf("error loading %s: %v", fileName, err)
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	p := &Preview{
		File: models.FileRecord{
			ID:               v.now().UnixMilli(),
			FileName:         fileName,
			OriginalFileName: fileName,
			FileSize:         blob.Size(),
			UploadedAt:       v.now(),
			ContentType:      blob.ContentType,
		},
		Category: fileutil.Classify(fileName),
	}

	switch p.Category {
	case fileutil.CategoryText:
		p.Content = models.FileContent{
			Kind:        models.ContentText,
			Text:        strings.ToValidUTF8(string(blob.Data), "�"),
			ContentType: blob.ContentType,
		}
	case fileutil.CategoryImage:
		ct := fileutil.ContentType(fileName)
		if ct == "" || strings.HasPrefix(blob.ContentType, "image/") {
			ct = blob.ContentType
		}
		p.Content = models.FileContent{Kind: models.ContentImage, Data: blob.Data, ContentType: ct}
	default:
		p.Content = models.FileContent{Kind: models.ContentDownload, Data: blob.Data, ContentType: blob.ContentType}
	}

	return p, nil
}

// Save writes the preview's bytes into dir under the file's base name and
// returns the path written.
func (p *Preview) Save(dir string) (string, error) {
	data := p.Content.Data
	if p.Content.Kind == models.ContentText {
		data = []byte(p.Content.Text)
	}

	path := filepath.Join(dir, filepath.Base(p.File.FileName))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}
