package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/capbridge/capbridge/common/log/tag"
)

func TestZapLoggerWritesTagsAsFields(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("connection established",
		tag.Endpoint("svc.echo"),
		tag.ConnectionGeneration(2),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection established", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "svc.echo", fields["endpoint"])
	assert.Equal(t, int64(2), fields["connection-generation"])
	assert.Contains(t, fields, tag.LoggingCallAtKey)
}

func TestZapLoggerEmptyMessage(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Warn("")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, defaultMsgForEmpty, entries[0].Message)
}

func TestWithPrependsTags(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := With(NewZapLogger(zap.New(core)), tag.Endpoint("svc.echo"))

	logger.Error("remote capability failure", tag.Error(errors.New("boom")))

	entries := observed.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "svc.echo", fields["endpoint"])
	assert.Equal(t, "boom", fields["error"])
}

func TestParseZapLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseZapLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseZapLevel("WARN"))
	assert.Equal(t, zap.InfoLevel, parseZapLevel("unknown"))
}
