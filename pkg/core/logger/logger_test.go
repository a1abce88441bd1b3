package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	l.With("engine").Info("run complete",
		String("sector", "Energia"),
		Int("samples", 30000),
		Float("wacc_real", 0.063),
		Duration("elapsed", 2*time.Millisecond),
		Strings("warnings", []string{"weights sum to 0.95"}),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "Energia", entry["sector"])
	assert.Equal(t, float64(30000), entry["samples"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "run complete", entry["message"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	l.Info("dropped")
	assert.Zero(t, buf.Len())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_BadLevel(t *testing.T) {
	_, err := NewWithWriter(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
