package models

import "time"

// FileRecord represents metadata about a file known to the remote service.
type FileRecord struct {
	ID               int64      `json:"id"`
	FileName         string     `json:"fileName"`         // storage key
	OriginalFileName string     `json:"originalFileName"` // display name
	FileSize         int64      `json:"fileSize"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	ContentType      string     `json:"contentType"`
	LastModified     *time.Time `json:"lastModified,omitempty"`
	Checksum         string     `json:"checksum,omitempty"`
}

// DisplayName returns the name shown to users.
func (r *FileRecord) DisplayName() string {
	if r.OriginalFileName != "" {
		return r.OriginalFileName
	}
	return r.FileName
}

// Blob is raw downloaded content with its content type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Data))
}
