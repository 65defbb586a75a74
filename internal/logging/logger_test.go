package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ConsoleWarnByDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Console: &buf}))

	Sub("test").Info("hidden")
	Sub("test").Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "comp=test")
	assert.False(t, Enabled(slog.LevelDebug))
}

func TestInit_DebugConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Console: &buf, Debug: true}))

	Sub("poller").Debug("tick", "n", 1)

	assert.Contains(t, buf.String(), "tick")
	assert.True(t, Enabled(slog.LevelDebug))
}

func TestInit_LogDirSplitsLevels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Console: &buf, Debug: true, Dir: dir}))

	Sub("x").Info("info line")
	Sub("x").Debug("debug line")

	info, err := os.ReadFile(filepath.Join(dir, "dat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "info line")
	assert.NotContains(t, string(info), "debug line")

	debug, err := os.ReadFile(filepath.Join(dir, "dat_debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(debug), "debug line")
	assert.NotContains(t, string(debug), "info line")
}
