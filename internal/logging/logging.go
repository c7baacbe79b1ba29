// Package logging builds the named gommon loggers used across filedeck.
package logging

import (
	"io"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

var (
	mu     sync.Mutex
	level  = log.INFO
	output io.Writer
)

// ParseLevel converts a config string to a gommon level. Unknown values
// map to INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	default:
		return log.INFO
	}
}

// Configure sets the level and output for loggers created afterwards.
// A nil writer keeps gommon's default (stdout).
func Configure(lvl string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(lvl)
	output = w
}

// New returns a logger whose lines are prefixed with the component name.
func New(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := log.New(component)
	l.SetLevel(level)
	l.SetHeader("${time_rfc3339} ${level} [${prefix}]")
	if output != nil {
		l.SetOutput(output)
	}
	return l
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	l := log.New("discard")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}
