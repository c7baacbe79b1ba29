package models

import (
	"encoding/base64"
	"time"
)

// ContentKind selects how a file is presented.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentDownload ContentKind = "download"
)

// FileContent is a renderable representation of a file's bytes.
type FileContent struct {
	Kind        ContentKind `json:"type"`
	Text        string      `json:"text,omitempty"`
	Data        []byte      `json:"-"`
	ContentType string      `json:"contentType,omitempty"`
}

// DataURI returns an inline reference usable as an image source.
func (c *FileContent) DataURI() string {
	ct := c.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// FileEventType names a change pushed by the file service.
type FileEventType string

const (
	EventFileUploaded FileEventType = "file:uploaded"
	EventFileDeleted  FileEventType = "file:deleted"
)

// FileEvent notifies subscribers that the file collection changed.
type FileEvent struct {
	Type      FileEventType `json:"type"`
	File      FileRecord    `json:"file"`
	Timestamp int64         `json:"timestamp"` // Unix ms
}

// NewFileEvent stamps an event with the current time.
func NewFileEvent(t FileEventType, file FileRecord) FileEvent {
	return FileEvent{
		Type:      t,
		File:      file,
		Timestamp: time.Now().UnixMilli(),
	}
}
