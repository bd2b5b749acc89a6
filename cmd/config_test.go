package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/brogergvhs/mangadex-dl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	out := execute(t, "config", "init", "--yes")
	assert.Contains(t, out, "This config is now active (label: Default).")

	out = execute(t, "config", "add", "weekly")
	assert.Contains(t, out, filepath.Join(dir, "mangadex-dl", "configs", "weekly.yaml"))

	out = execute(t, "config", "switch", "weekly")
	assert.Contains(t, out, "Switched to: weekly")

	out = execute(t, "config", "list")
	assert.Regexp(t, `weekly\s+\S+weekly\.yaml\s+yes\s+ok`, out)

	out = execute(t, "config", "rename", "weekly", "daily")
	assert.Contains(t, out, `Renamed config "weekly" to "daily"`)

	out = execute(t, "config", "remove", "--force", "daily")
	assert.Contains(t, out, "Fallback switched to: Default")

	label, err := config.CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLabel, label)
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "mangadex-dl version: dev")
}
