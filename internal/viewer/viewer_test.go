package viewer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewer_Load(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddFile(models.FileRecord{FileName: "notes.md", ContentType: "text/markdown"}, []byte("# Title"))
	svc.AddFile(models.FileRecord{FileName: "pic.png", ContentType: "image/png"}, []byte{0x89, 'P', 'N', 'G'})
	svc.AddFile(models.FileRecord{FileName: "report.pdf", ContentType: "application/pdf"}, []byte("%PDF-1.4"))
	svc.AddFile(models.FileRecord{FileName: "mystery", ContentType: ""}, []byte{0, 1})
	svc.AddFile(models.FileRecord{FileName: "broken.txt", ContentType: "text/plain"}, []byte{'o', 'k', 0xff})

	v := New(svc, logging.Discard())
	ctx := context.Background()

	t.Run("text is decoded", func(t *testing.T) {
		p, err := v.Load(ctx, "notes.md")
		require.NoError(t, err)
		assert.Equal(t, fileutil.CategoryText, p.Category)
		assert.Equal(t, models.ContentText, p.Content.Kind)
		assert.Equal(t, "# Title", p.Content.Text)
		assert.Equal(t, int64(7), p.File.FileSize)
	})

	t.Run("invalid utf-8 is replaced", func(t *testing.T) {
		p, err := v.Load(ctx, "broken.txt")
		require.NoError(t, err)
		assert.Equal(t, "ok�", p.Content.Text)
	})

	t.Run("image becomes data uri", func(t *testing.T) {
		p, err := v.Load(ctx, "pic.png")
		require.NoError(t, err)
		assert.Equal(t, models.ContentImage, p.Content.Kind)
		assert.True(t, strings.HasPrefix(p.Content.DataURI(), "data:image/png;base64,"))
	})

	t.Run("document is offered for download", func(t *testing.T) {
		p, err := v.Load(ctx, "report.pdf")
		require.NoError(t, err)
		assert.Equal(t, models.ContentDownload, p.Content.Kind)
		assert.Equal(t, []byte("%PDF-1.4"), p.Content.Data)
	})

	t.Run("unknown is offered for download", func(t *testing.T) {
		p, err := v.Load(ctx, "mystery")
		require.NoError(t, err)
		assert.Equal(t, fileutil.CategoryUnknown, p.Category)
		assert.Equal(t, models.ContentDownload, p.Content.Kind)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := v.Load(ctx, "nope.txt")
		assert.ErrorIs(t, err, ErrLoadFailed)
	})
}

func TestViewer_CategoryIgnoresContentType(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddFile(models.FileRecord{FileName: "data.json", ContentType: "application/octet-stream"}, []byte(`{"a":1}`))

	p, err := New(svc, logging.Discard()).Load(context.Background(), "data.json")
	require.NoError(t, err)
	assert.Equal(t, models.ContentText, p.Content.Kind)
	assert.Equal(t, `{"a":1}`, p.Content.Text)
}

func TestViewer_OfflinePlaceholder(t *testing.T) {
	p, err := New(client.NewOfflineService(), logging.Discard()).Load(context.Background(), "photo.jpg")
	require.NoError(t, err)

	// The placeholder is text, but the name decides the representation.
	assert.Equal(t, models.ContentImage, p.Content.Kind)
	assert.Equal(t, "image/jpeg", p.Content.ContentType)
}

func TestPreview_Save(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddFile(models.FileRecord{FileName: "archive.zip", ContentType: "application/zip"}, []byte("PK"))

	p, err := New(svc, logging.Discard()).Load(context.Background(), "archive.zip")
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := p.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
}
