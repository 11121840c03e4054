package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})

	logger.Debug(context.Background(), "not shown")
	logger.Info(context.Background(), "not shown either")
	assert.Empty(t, buf.String())

	logger.Warn(context.Background(), nil, "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.With("suite", "tap").Info(context.Background(), "parsed", "tests", 6)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "parsed", entry["msg"])
	assert.Equal(t, "tap", entry["suite"])
	assert.Equal(t, float64(6), entry["tests"])
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("importer").Info(context.Background(), "imported")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "importer", entry["component"])
}

func TestLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelError, Format: "json", Output: &buf})

	logger.Error(context.Background(), errors.New("boom"), "it broke")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "it broke", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
	assert.Equal(t, LevelInfo, logger.level)
}
