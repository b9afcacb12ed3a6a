package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "table", "wp_people")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "wp_people", entry["table"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "debug", Format: "text"})
	require.NoError(t, err)

	logger.Debug("statement", "sql", "SELECT 1")
	assert.Contains(t, buf.String(), `msg=statement sql="SELECT 1"`)
}

func TestNew_PrettyWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "info", Format: "pretty"})
	require.NoError(t, err)

	logger.Info("ready", "addr", ":8080")
	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "addr=:8080")
	assert.NotContains(t, out, "\x1b[", "no color codes outside a terminal")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, config.LogConfig{Format: "xml"})
	assert.Error(t, err)
}
