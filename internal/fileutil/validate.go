package fileutil

import "fmt"

// MaxFileSize is the upload limit in bytes (100 MiB).
const MaxFileSize int64 = 100 * 1024 * 1024

// Validation messages, in the order Validate reports them.
var (
	MsgTooLarge    = fmt.Sprintf("File size exceeds %s limit", FormatSize(MaxFileSize))
	MsgUnsupported = "File type not supported"
	MsgEmpty       = "File is empty"
)

// Validate runs every check and returns all violations. An empty result
// is the only success signal.
func Validate(name string, size int64) []string {
	var errs []string

	if size > MaxFileSize {
		errs = append(errs, MsgTooLarge)
	}
	if !IsSupported(name) {
		errs = append(errs, MsgUnsupported)
	}
	if size == 0 {
		errs = append(errs, MsgEmpty)
	}

	return errs
}
