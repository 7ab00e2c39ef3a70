// env.go - Environment variable configuration
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", envPrefix + "_DEBUG", validateEnvBool},

		{"migration.statsdir", envPrefix + "_STATSDIR", nil},
		{"migration.pattern", envPrefix + "_PATTERN", nil},
		{"migration.batchsize", envPrefix + "_BATCHSIZE", validateEnvPositiveInt},
		{"migration.budget", envPrefix + "_BUDGET", validateEnvDuration},
		{"migration.tickperiod", envPrefix + "_TICKPERIOD", validateEnvDuration},

		{"mapping.file", envPrefix + "_MAPPING_FILE", nil},

		{"backup.enabled", envPrefix + "_BACKUP_ENABLED", validateEnvBool},
		{"backup.dir", envPrefix + "_BACKUP_DIR", nil},
		{"backup.checkspace", envPrefix + "_BACKUP_CHECKSPACE", validateEnvBool},

		{"notify.enabled", envPrefix + "_NOTIFY_ENABLED", validateEnvBool},

		{"telemetry.enabled", envPrefix + "_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.listen", envPrefix + "_TELEMETRY_LISTEN", nil},

		{"sentry.enabled", envPrefix + "_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", envPrefix + "_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds the environment variables and validates any that are set
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration such as 20ms")
	}
	return nil
}
