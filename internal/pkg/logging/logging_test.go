package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"warehouse/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "order_id", "o-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "o-1", entry["order_id"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("hello", "component", "test")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "component=test")
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	_, err := logging.New(logging.Config{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)

	_, err = logging.New(logging.Config{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
