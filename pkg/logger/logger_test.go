package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	assert.NotNil(t, logger)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)

	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger_WithContextLogger(t *testing.T) {
	ctx := context.Background()

	customLogger := logrus.NewEntry(logrus.New()).WithField("registry", "testdata")
	ctxWithLogger := WithLogger(ctx, customLogger)

	retrievedLogger := G(ctxWithLogger)

	assert.NotNil(t, retrievedLogger)
	assert.Contains(t, retrievedLogger.Data, "registry")
	assert.Equal(t, "testdata", retrievedLogger.Data["registry"])
}

func TestGetLogger_WithoutContextLogger(t *testing.T) {
	ctx := context.Background()

	retrievedLogger := G(ctx)

	assert.NotNil(t, retrievedLogger)
	// Should return the global logger L with context
	assert.Equal(t, L.Logger, retrievedLogger.Logger)
}

func TestJSONFormatFieldNames(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	SetLogFormatForLogger(logger, "json")

	entry := logrus.NewEntry(logger)
	ctx := WithLogger(context.Background(), entry)

	G(ctx).Info("analysis started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Contains(t, logEntry, "timestamp")
	assert.Contains(t, logEntry, "logLevel")
	assert.Contains(t, logEntry, "message")
	assert.Equal(t, "info", logEntry["logLevel"])
	assert.Equal(t, "analysis started", logEntry["message"])
}

func TestSetLogLevel(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		require.NoError(t, SetLogLevel("debug"))
		assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
		require.NoError(t, SetLogLevel("info"))
	})

	t.Run("invalid level", func(t *testing.T) {
		assert.Error(t, SetLogLevel("chatty"))
	})
}

func TestLoggerChaining(t *testing.T) {
	ctx := context.Background()

	logger1 := logrus.NewEntry(logrus.New()).WithField("component", "resolver")
	ctxWithLogger := WithLogger(ctx, logger1)

	logger2 := G(ctxWithLogger).WithField("edge", "S1->M1")
	ctxWithLogger2 := WithLogger(ctxWithLogger, logger2)

	finalLogger := G(ctxWithLogger2)

	assert.Equal(t, "resolver", finalLogger.Data["component"])
	assert.Equal(t, "S1->M1", finalLogger.Data["edge"])
}
