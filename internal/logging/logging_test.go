package logging

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, ParseLevel("debug"))
	assert.Equal(t, log.WARN, ParseLevel(" Warning "))
	assert.Equal(t, log.ERROR, ParseLevel("error"))
	assert.Equal(t, log.OFF, ParseLevel("off"))
	assert.Equal(t, log.INFO, ParseLevel("chatty"))
}

func TestNewUsesConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure("warn", &buf)
	defer Configure("info", nil)

	l := New("client")
	l.Info("hidden")
	l.Warn("backend not available")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[client]")
	assert.Contains(t, out, "backend not available")
}
