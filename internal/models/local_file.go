package models

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalFile is a file selected for upload. It is the client-side
// counterpart of a browser File: a name, a size, a type and its bytes.
type LocalFile struct {
	Name        string
	Size        int64
	ContentType string
	open        func() (io.ReadCloser, error)
}

// NewLocalFileFromPath describes a file on disk.
func NewLocalFileFromPath(path string) (*LocalFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &LocalFile{
		Name:        filepath.Base(path),
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewLocalFileFromBytes wraps in-memory content.
func NewLocalFileFromBytes(name, contentType string, data []byte) *LocalFile {
	return &LocalFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewLocalFileFromPart wraps an uploaded multipart form file.
func NewLocalFileFromPart(fh *multipart.FileHeader) *LocalFile {
	return &LocalFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Open returns a reader over the file content.
func (f *LocalFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}
