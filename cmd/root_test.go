package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/buildinfo"
	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/logger"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		viper.Reset()
		logger.SetGlobal(nil)
	})
}

func TestRootScanUsesFlagsOverConfig(t *testing.T) {
	resetGlobals(t)

	statsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(statsDir, "one.json"), []byte(`{"stat.jump": 1}`), 0o600))

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "migration:\n  statsdir: /does/not/exist\n  batchsize: 7\nlogging:\n  console:\n    enabled: false\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o600))

	settings := &conf.Settings{}
	root := RootCommand(buildinfo.NewContext("test", ""), settings)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgFile, "--statsdir", statsDir, "scan"})

	require.NoError(t, root.Execute())
	assert.Equal(t, statsDir, settings.Migration.StatsDir, "flag wins over config file")
	assert.Equal(t, 7, settings.Migration.BatchSize, "config file wins over defaults")
	assert.Contains(t, out.String(), "legacy:     1")
}

func TestRootRejectsInvalidSettings(t *testing.T) {
	resetGlobals(t)

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("migration:\n  batchsize: 0\n"), 0o600))

	root := RootCommand(buildinfo.NewContext("test", ""), &conf.Settings{})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgFile, "--statsdir", t.TempDir(), "scan"})

	require.Error(t, root.Execute())
}

func TestRootVersion(t *testing.T) {
	resetGlobals(t)

	root := RootCommand(buildinfo.NewContext("1.2.0", "2026-01-01"), &conf.Settings{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "1.2.0 (built 2026-01-01)")
}
