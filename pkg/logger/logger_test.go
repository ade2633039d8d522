package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "info")
	log.Debug("hidden")
	log.Info("visible", "zone", "suburban")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "urban-heat-advisor", entry["service"])
	require.Equal(t, "visible", entry["msg"])
	require.Equal(t, "suburban", entry["zone"])
}
