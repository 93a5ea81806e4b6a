package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, false)
	defer Configure(os.Stderr, false)
	defer SetVerbosity(false, false)

	SetVerbosity(false, false)
	Info("hidden")
	Warn("shown warning")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown warning")

	buf.Reset()
	SetVerbosity(true, false)
	Info("info line")
	Debug("debug line")
	assert.Contains(t, buf.String(), "info line")
	assert.NotContains(t, buf.String(), "debug line")

	buf.Reset()
	SetVerbosity(false, true)
	Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestComponentFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, false)
	defer Configure(os.Stderr, false)

	DB().WithFields(map[string]interface{}{"table": "meals"}).Error("boom")
	out := buf.String()
	assert.Contains(t, out, "component=db")
	assert.Contains(t, out, "table=meals")
	assert.Contains(t, out, "boom")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelWarn, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
