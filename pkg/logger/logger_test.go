package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, L.Logger, G(ctx).Logger)

	custom := logrus.NewEntry(logrus.New()).WithField("session", "s1")
	ctx = WithLogger(ctx, custom)
	assert.Equal(t, "s1", G(ctx).Data["session"])
	assert.Equal(t, custom.Logger, G(ctx).Logger)
}

func TestWithFieldsAccumulates(t *testing.T) {
	ctx := WithFields(context.Background(), logrus.Fields{"session": "s1"})
	ctx = WithFields(ctx, logrus.Fields{"agent": "claude"})

	entry := G(ctx)
	assert.Equal(t, "s1", entry.Data["session"])
	assert.Equal(t, "claude", entry.Data["agent"])
}

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
		require.NoError(t, Configure("info", "fmt"))
	})

	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	ctx := WithFields(context.Background(), logrus.Fields{"component": "observer"})
	G(ctx).Debug("observation stored")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "observation stored", line["message"])
	assert.Equal(t, "debug", line["logLevel"])
	assert.Equal(t, "observer", line["component"])
	assert.Contains(t, line, "timestamp")

	err := Configure("loud", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}
