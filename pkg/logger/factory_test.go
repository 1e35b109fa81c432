package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobkit/pkg/logger"
)

func TestNewJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "blobkit")),
	)

	log.Info("upload complete", logger.Backend("primary"), logger.Bucket("posts"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "upload complete", record["msg"])
	assert.Equal(t, "blobkit", record["service"])
	assert.Equal(t, "primary", record["backend"])
	assert.Equal(t, "posts", record["bucket"])
}

func TestNewLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestTextFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithTextFormatter())

	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("x")).Key)
	assert.Equal(t, slog.Attr{}, logger.Status(0))
	assert.Equal(t, int64(503), logger.Status(503).Value.Int64())
	assert.Equal(t, int64(1), logger.Attempt(1).Value.Int64())
	assert.Equal(t, "abc/1.jpg", logger.Path("abc/1.jpg").Value.String())
}
