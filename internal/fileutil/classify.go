// Package fileutil classifies, validates and formats files by name and size.
package fileutil

import (
	"sort"
	"strings"
)

// Category is a coarse file kind derived from the file extension.
type Category string

const (
	CategoryText     Category = "text"
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryArchive  Category = "archive"
	CategoryUnknown  Category = "unknown"
)

type fileType struct {
	category Category
	mimeType string
}

// supportedTypes is the single source for classification, support and MIME
// lookups. Keys are lower-case with a leading dot.
var supportedTypes = map[string]fileType{
	".txt":  {CategoryText, "text/plain"},
	".json": {CategoryText, "application/json"},
	".xml":  {CategoryText, "application/xml"},
	".csv":  {CategoryText, "text/csv"},
	".md":   {CategoryText, "text/markdown"},

	".jpg":  {CategoryImage, "image/jpeg"},
	".jpeg": {CategoryImage, "image/jpeg"},
	".png":  {CategoryImage, "image/png"},
	".gif":  {CategoryImage, "image/gif"},
	".bmp":  {CategoryImage, "image/bmp"},
	".svg":  {CategoryImage, "image/svg+xml"},

	".pdf":  {CategoryDocument, "application/pdf"},
	".doc":  {CategoryDocument, "application/msword"},
	".docx": {CategoryDocument, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".xls":  {CategoryDocument, "application/vnd.ms-excel"},
	".xlsx": {CategoryDocument, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".ppt":  {CategoryDocument, "application/vnd.ms-powerpoint"},
	".pptx": {CategoryDocument, "application/vnd.openxmlformats-officedocument.presentationml.presentation"},

	".zip": {CategoryArchive, "application/zip"},
	".rar": {CategoryArchive, "application/x-rar-compressed"},
	".7z":  {CategoryArchive, "application/x-7z-compressed"},
	".tar": {CategoryArchive, "application/x-tar"},
	".gz":  {CategoryArchive, "application/gzip"},
}

// Extension returns the lower-cased suffix starting at the last dot,
// or "" when the name has no dot.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// Classify maps a file name to its category. Only the extension is
// consulted, never the content type or the bytes.
func Classify(name string) Category {
	if t, ok := supportedTypes[Extension(name)]; ok {
		return t.category
	}
	return CategoryUnknown
}

// IsSupported reports whether the extension is on the upload whitelist.
func IsSupported(name string) bool {
	_, ok := supportedTypes[Extension(name)]
	return ok
}

// ContentType returns the MIME type registered for the extension, or "".
func ContentType(name string) string {
	return supportedTypes[Extension(name)].mimeType
}

// SupportedExtensions returns the whitelist in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedTypes))
	for ext := range supportedTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
