package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("parsed file", slog.String("format", "star"))
		logger.Error("parse failed", slog.Int("line", 7))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("parsed file"))
		assert.True(t, handler.ContainsAttr("format", "star"))
		assert.True(t, handler.ContainsAttr("line", int64(7)))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "parser").Info("child")
		logger.Info("parent")

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "parser", records[0].Attrs["component"])
		assert.NotContains(t, records[1].Attrs, "component")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Equal(t, 0, handler.Count())
		AssertNoErrors(t, handler)
	})
}

func TestSampleFiles(t *testing.T) {
	files := SampleFiles(t)
	require.Len(t, files, 3)

	for format, path := range files {
		data, err := os.ReadFile(path)
		require.NoError(t, err, format)
		assert.NotEmpty(t, data, format)
	}
}
