package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevelsAndFields(t *testing.T) {
	atom := zap.NewAtomicLevelAt(INFO.zapLevel())
	core, logs := observer.New(atom)
	l := newCoreLogger(core, atom)

	l.Debug("hidden %d", 1)
	l.WithField("tool", "send_email").Info("called %s", "send")
	l.SetLevel(ERROR)
	l.Warn("hidden too")
	l.Error("failed: %v", "boom")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "called send", entries[0].Message)
	assert.Equal(t, "send_email", entries[0].ContextMap()["tool"])
	assert.Equal(t, "failed: boom", entries[1].Message)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("debug"))
	assert.Equal(t, WARN, ParseLogLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLogLevel("ERROR"))
	assert.Equal(t, INFO, ParseLogLevel(""))
	assert.Equal(t, "WARN", WARN.String())
}

func TestInitLoggerWritesFile(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	path := filepath.Join(t.TempDir(), "mdmail.log")
	require.NoError(t, InitLogger("info", path))

	Log.WithFields(map[string]interface{}{"draft": "draft.md"}).Info("compose_new_email returned ok")
	_ = Log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "compose_new_email returned ok")
	assert.Contains(t, string(data), "draft.md")
}
