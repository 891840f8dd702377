package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reconciler/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.New(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("batch validated", "batch", "RB-20240131-0001")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch validated", entry["msg"])
	assert.Equal(t, "RB-20240131-0001", entry["batch"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer

	logging.New(&buf, "debug", "text").Debug("flush", "lines", 3)
	assert.Contains(t, buf.String(), "msg=flush lines=3")
}
