package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlogAdapter(t *testing.T) {
	t.Run("with nil logger uses default", func(t *testing.T) {
		adapter := NewSlogAdapter(nil)
		assert.NotNil(t, adapter)
		assert.NotNil(t, adapter.Logger())
	})

	t.Run("with custom logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		adapter := NewSlogAdapter(logger)
		assert.NotNil(t, adapter)
		assert.Equal(t, logger, adapter.Logger())
	})
}

func TestSlogAdapterLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	adapter := NewSlogAdapter(logger)

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		adapter.Info("info message", "key", "value")
		output := buf.String()
		assert.Contains(t, output, "info message")
		assert.Contains(t, output, "key")
		assert.Contains(t, output, "value")
	})

	t.Run("Warn", func(t *testing.T) {
		buf.Reset()
		adapter.Warn("warn message")
		assert.Contains(t, buf.String(), "warn message")
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		adapter.Error("error message", "error", "boom")
		output := buf.String()
		assert.Contains(t, output, "error message")
		assert.Contains(t, output, "boom")
	})

	t.Run("Debug below default level", func(t *testing.T) {
		buf.Reset()
		adapter.Debug("debug message")
		assert.NotContains(t, buf.String(), "debug message")
	})
}

func TestSlogAdapterWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	adapter := NewSlogAdapter(logger).With("namespace", "bdk")

	adapter.Info("scoped")
	output := buf.String()
	assert.Contains(t, output, "scoped")
	assert.Contains(t, output, `"namespace":"bdk"`)
}
