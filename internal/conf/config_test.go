package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/errors"
)

// writeConfig writes a config.yaml into a temp dir and returns a viper
// instance pointed at it.
func writeConfig(t *testing.T, content string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	return v
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	v := writeConfig(t, "migration:\n  statsdir: world/stats\n")

	settings, err := LoadFrom(v)
	require.NoError(t, err)

	m := settings.Migration
	assert.Equal(t, "world/stats", m.StatsDir)
	assert.Equal(t, DefaultPattern, m.Pattern)
	assert.Equal(t, DefaultBatchSize, m.BatchSize)
	assert.Equal(t, DefaultBudget, m.Budget)
	assert.Equal(t, DefaultLagThreshold, m.LagThreshold)
	assert.Equal(t, DefaultTickPeriod, m.TickPeriod)
	assert.Equal(t, DefaultSourceDataVersion, m.SourceDataVersion)
	assert.Equal(t, DefaultTargetDataVersion, m.TargetDataVersion)
	assert.Equal(t, DefaultReadAhead, m.ReadAhead)

	assert.False(t, settings.Backup.Enabled)
	assert.True(t, settings.Backup.CheckSpace)
	assert.False(t, settings.Notify.Enabled)
	assert.Equal(t, DefaultNotifyTimeout, settings.Notify.Timeout)
	assert.Equal(t, "127.0.0.1:8090", settings.Telemetry.Listen)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
}

func TestLoadFromOverrides(t *testing.T) {
	v := writeConfig(t, `
migration:
  statsdir: /srv/world/stats
  batchsize: 4
  budget: 35ms
  tickperiod: 1s
backup:
  enabled: true
  dir: /srv/backup
notify:
  enabled: true
  urls:
    - discord://token@channel
logging:
  defaultlevel: debug
  modulelevels:
    migration: trace
`)

	settings, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 4, settings.Migration.BatchSize)
	assert.Equal(t, 35*time.Millisecond, settings.Migration.Budget)
	assert.Equal(t, time.Second, settings.Migration.TickPeriod)
	assert.True(t, settings.Backup.Enabled)
	assert.Equal(t, "/srv/backup", settings.Backup.Dir)
	assert.True(t, settings.Notify.Enabled)
	assert.Equal(t, []string{"discord://token@channel"}, settings.Notify.URLs)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["migration"])
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STATSUPDATER_STATSDIR", "/from/env")
	t.Setenv("STATSUPDATER_BATCHSIZE", "7")

	v := writeConfig(t, "migration:\n  statsdir: from-file\n")

	settings, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", settings.Migration.StatsDir)
	assert.Equal(t, 7, settings.Migration.BatchSize)
}

func TestLoadFromRejectsBadEnvironment(t *testing.T) {
	t.Setenv("STATSUPDATER_BATCHSIZE", "zero")

	v := writeConfig(t, "migration:\n  statsdir: stats\n")

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		return &Settings{
			Migration: MigrationSettings{
				StatsDir:          "stats",
				Pattern:           DefaultPattern,
				BatchSize:         DefaultBatchSize,
				Budget:            DefaultBudget,
				LagThreshold:      DefaultLagThreshold,
				TickPeriod:        DefaultTickPeriod,
				SourceDataVersion: DefaultSourceDataVersion,
				TargetDataVersion: DefaultTargetDataVersion,
				ReadAhead:         DefaultReadAhead,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "empty stats dir", mutate: func(s *Settings) { s.Migration.StatsDir = " " }, wantErr: "statsdir"},
		{name: "zero batch size", mutate: func(s *Settings) { s.Migration.BatchSize = 0 }, wantErr: "batchsize"},
		{name: "zero budget", mutate: func(s *Settings) { s.Migration.Budget = 0 }, wantErr: "budget"},
		{name: "zero lag threshold", mutate: func(s *Settings) { s.Migration.LagThreshold = 0 }, wantErr: "lagthreshold"},
		{name: "source version too old", mutate: func(s *Settings) { s.Migration.SourceDataVersion = 99 }, wantErr: "predates"},
		{name: "zero tick period", mutate: func(s *Settings) { s.Migration.TickPeriod = 0 }, wantErr: "tickperiod"},
		{name: "bad pattern", mutate: func(s *Settings) { s.Migration.Pattern = "[" }, wantErr: "pattern"},
		{name: "inverted versions", mutate: func(s *Settings) { s.Migration.SourceDataVersion = 4000 }, wantErr: "sourcedataversion"},
		{name: "backup without dir", mutate: func(s *Settings) { s.Backup = BackupSettings{Enabled: true} }, wantErr: "backup.dir"},
		{name: "bad listen address", mutate: func(s *Settings) {
			s.Telemetry = TelemetrySettings{Enabled: true, Listen: "8090"}
		}, wantErr: "telemetry.listen"},
		{name: "notify without urls", mutate: func(s *Settings) {
			s.Notify = NotifySettings{Enabled: true, Timeout: DefaultNotifyTimeout}
		}, wantErr: "notify.urls"},
		{name: "notify without timeout", mutate: func(s *Settings) {
			s.Notify = NotifySettings{Enabled: true, URLs: []string{"logger://"}}
		}, wantErr: "notify.timeout"},
		{name: "sentry without dsn", mutate: func(s *Settings) { s.Sentry.Enabled = true }, wantErr: "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid()
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
		})
	}
}

func TestDefaultConfigPaths(t *testing.T) {
	if runtime.GOOS == osWindows {
		t.Skip("unix search paths")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths, err := defaultConfigPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		".",
		filepath.Join(home, ".config", "statsupdater"),
		filepath.Join("/etc", "statsupdater"),
	}, paths)
}
