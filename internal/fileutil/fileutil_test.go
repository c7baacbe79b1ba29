package fileutil

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"notes.txt", CategoryText},
		{"data.JSON", CategoryText},
		{"README.md", CategoryText},
		{"photo.jpeg", CategoryImage},
		{"logo.SVG", CategoryImage},
		{"a.PDF", CategoryDocument},
		{"deck.pptx", CategoryDocument},
		{"a.tar.gz", CategoryArchive},
		{"bundle.7z", CategoryArchive},
		{"noext", CategoryUnknown},
		{"binary.exe", CategoryUnknown},
		{"trailing.", CategoryUnknown},
		{".txt", CategoryText},
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestIsSupportedMatchesClassify(t *testing.T) {
	names := []string{"noext", "x.exe", "x.", "x.TXT", "archive.tar.gz", "dir.d/file", "a.b.c.docx"}
	for _, ext := range SupportedExtensions() {
		names = append(names, "file"+ext, "FILE"+ext, "multi.part"+ext)
	}

	for _, n := range names {
		assert.Equal(t, Classify(n) != CategoryUnknown, IsSupported(n), "name %q", n)
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Len(t, exts, 23)
	assert.Contains(t, exts, ".gz")
	assert.IsNonDecreasing(t, exts)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("x.PNG"))
	assert.Equal(t, "application/gzip", ContentType("x.tar.gz"))
	assert.Equal(t, "", ContentType("x.unknown"))
}

func TestValidate(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		assert.Empty(t, Validate("a.txt", 10))
	})

	t.Run("oversized only", func(t *testing.T) {
		errs := Validate("a.txt", 104857601)
		assert.Equal(t, []string{MsgTooLarge}, errs)
		assert.Equal(t, "File size exceeds 100 MB limit", errs[0])
	})

	t.Run("exactly at limit", func(t *testing.T) {
		assert.Empty(t, Validate("a.txt", MaxFileSize))
	})

	t.Run("unsupported and empty in order", func(t *testing.T) {
		assert.Equal(t, []string{MsgUnsupported, MsgEmpty}, Validate("a.xyz", 0))
	})

	t.Run("every violation", func(t *testing.T) {
		assert.Len(t, Validate("a.exe", MaxFileSize+1), 2)
	})
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1100, "1.07 KB"},
		{1048576, "1 MB"},
		{MaxFileSize, "100 MB"},
		{1073741824, "1 GB"},
		{5 * 1099511627776, "5120 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}

func TestFormatDate(t *testing.T) {
	datePart := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

	assert.Regexp(t, datePart, FormatDate("2024-03-05T10:20:30Z"))
	assert.Regexp(t, datePart, FormatDate("2024-03-05T10:20:30.123456"))
	assert.Regexp(t, datePart, FormatDate(time.Now().Format(time.RFC3339Nano)))
	assert.Equal(t, "Invalid Date", FormatDate("yesterday"))
}
