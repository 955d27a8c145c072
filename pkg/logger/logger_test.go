package logger_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/findata/findwh/pkg/config"
	"github.com/findata/findwh/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, v := range tests {
		assert.Equal(t, v.expected, logger.ParseLevel(v.input), v.input)
	}
}

func TestNew(t *testing.T) {
	t.Run("stderr destination", func(t *testing.T) {
		log, err := logger.New(config.LogConfig{
			Format: "json", Level: "info", Destination: "stderr",
		})
		require.NoError(t, err)
		require.NotNil(t, log)
	})

	t.Run("file destination", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "findwh.log")
		log, err := logger.New(config.LogConfig{
			Format: "text", Level: "debug", Destination: path,
		})
		require.NoError(t, err)
		require.NotNil(t, log)

		log.Info("test entry")
		assert.FileExists(t, path)
	})

	t.Run("unknown format falls back to json", func(t *testing.T) {
		log, err := logger.New(config.LogConfig{Format: "yaml"})
		require.NoError(t, err)
		require.NotNil(t, log)
	})
}
