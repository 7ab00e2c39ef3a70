// conf/config.go settings loading for the stats updater
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
)

const (
	appName   = "statsupdater"
	envPrefix = "STATSUPDATER"
	osWindows = "windows"
)

// MigrationSettings drives the batch processor and its scheduler
type MigrationSettings struct {
	StatsDir          string        // directory holding one stats document per player
	Pattern           string        // glob matched against file names, e.g. "*.json"
	BatchSize         int           // initial number of files per tick
	Budget            time.Duration // per-tick time budget before a tick counts as lagging
	LagThreshold      int           // consecutive lagging ticks tolerated before shrinking the batch
	TickPeriod        time.Duration // interval between ProcessBatch calls
	SourceDataVersion int           // version the legacy documents are assumed to carry
	TargetDataVersion int           // version stamped on converted documents
	ReadAhead         int           // directory entries read per enumeration call
}

// MappingSettings locates the legacy id tables
type MappingSettings struct {
	File string // YAML file with blocks, items, renames and registry
}

// BackupSettings controls compressed copies of legacy documents
type BackupSettings struct {
	Enabled    bool
	Dir        string
	CheckSpace bool // refuse to start when the backup volume cannot hold the legacy files
}

// TelemetrySettings controls the Prometheus endpoint
type TelemetrySettings struct {
	Enabled bool
	Listen  string
}

// NotifySettings controls the completion notification
type NotifySettings struct {
	Enabled bool
	URLs    []string      // shoutrrr service URLs
	Timeout time.Duration // per-send timeout
}

// SentrySettings controls error reporting
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings contains all configuration options
type Settings struct {
	Debug     bool
	Migration MigrationSettings
	Mapping   MappingSettings
	Backup    BackupSettings
	Logging   logger.LoggingConfig
	Telemetry TelemetrySettings
	Notify    NotifySettings
	Sentry    SentrySettings
}

// Load reads the configuration file, environment variables and bound flags
// from the global viper instance.
func Load() (*Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds settings from v. A missing config file is not an error;
// defaults, environment and flags still apply.
func LoadFrom(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "init-viper").
			Build()
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// initViper registers defaults and config paths, binds the environment and
// reads the configuration file if one exists.
func initViper(v *viper.Viper) error {
	setDefaultConfig(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindEnvVars(v); err != nil {
		return err
	}

	// an explicit --config path wins over the search paths
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		configPaths, err := defaultConfigPaths()
		if err != nil {
			return fmt.Errorf("error getting default config paths: %w", err)
		}
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// defaultConfigPaths returns the directories searched for config.yaml, in order.
func defaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	if runtime.GOOS == osWindows {
		return []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", appName),
		}, nil
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", appName),
		filepath.Join("/etc", appName),
	}, nil
}
