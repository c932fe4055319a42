package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuild_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := Build(Options{Level: "debug", Format: "json", ToConsole: true, Console: &buf})
	require.NoError(t, err)

	l.Info("turn_cycle_started", zap.Uint64("epoch", 3))
	require.NoError(t, l.Sync())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "turn_cycle_started", rec["msg"])
	assert.Equal(t, "info", rec["level"])
	assert.EqualValues(t, 3, rec["epoch"])
}

func TestBuild_LegacySeparatorAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := Build(Options{Level: "warn", Format: "nonsense", ToConsole: true, Console: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")
	_ = l.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN | ")
	assert.Contains(t, out, "shown")
}

func TestBuild_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.log")
	l, err := Build(Options{Level: "info", Format: "console", ToFile: true, FilePath: path})
	require.NoError(t, err)
	l.Info("snapshot_applied")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "snapshot_applied"))
}

func TestBuild_NoSinksIsNop(t *testing.T) {
	l, err := Build(Options{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestSetNilInstallsNop(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })
	assert.NotNil(t, L())
}
