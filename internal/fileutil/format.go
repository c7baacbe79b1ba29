package fileutil

import (
	"math"
	"strconv"
	"time"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count in the largest fitting unit up to GB,
// with at most two decimals and no trailing zeros.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}

	v := float64(bytes)
	i := 0
	for math.Abs(v) >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}

	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Layouts accepted by FormatDate. The zone-less form is what Java
// LocalDateTime serializes to.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// FormatDate renders a timestamp as local date and local time joined by
// a single space.
func FormatDate(iso string) string {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.Local); err == nil {
			return FormatTime(t)
		}
	}
	return "Invalid Date"
}

// FormatTime is FormatDate for an already parsed time.
func FormatTime(t time.Time) string {
	t = t.Local()
	return t.Format("2006-01-02") + " " + t.Format("15:04:05")
}
