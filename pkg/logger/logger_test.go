package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("info", FormatJSON, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("Task created", zap.String("task_id", "42"))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "Task created", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "42", entry["task_id"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "caller")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("debug", FormatConsole, &buf)
	require.NoError(t, err)

	log.Debug("Conversion stage", zap.String("stage", "converting KML to GeoJSON"))
	require.NoError(t, log.Sync())

	assert.Contains(t, buf.String(), "Conversion stage")
	assert.Contains(t, buf.String(), "converting KML to GeoJSON")
}

func TestNewWithWriter_Invalid(t *testing.T) {
	_, err := NewWithWriter("loud", FormatJSON, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMust_Panics(t *testing.T) {
	assert.Panics(t, func() { Must("loud", FormatJSON) })
	assert.NotPanics(t, func() { Must("warn", FormatConsole) })
}
