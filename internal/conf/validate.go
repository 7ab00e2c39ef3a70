// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"path"
	"strings"

	"github.com/hellominers/statsupdater/internal/datafix"
	"github.com/hellominers/statsupdater/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateMigrationSettings(&settings.Migration); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateBackupSettings(&settings.Backup); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateNotifySettings(&settings.Notify); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Category(errors.CategoryConfiguration).
			Context("validation_errors", len(ve.Errors)).
			Build()
	}

	return nil
}

func validateMigrationSettings(m *MigrationSettings) error {
	var problems []string

	if strings.TrimSpace(m.StatsDir) == "" {
		problems = append(problems, "migration.statsdir must be set")
	}
	if _, err := path.Match(m.Pattern, "probe.json"); err != nil || m.Pattern == "" {
		problems = append(problems, fmt.Sprintf("migration.pattern %q is not a valid glob", m.Pattern))
	}
	if m.BatchSize < 1 {
		problems = append(problems, fmt.Sprintf("migration.batchsize must be at least 1, got %d", m.BatchSize))
	}
	if m.Budget <= 0 {
		problems = append(problems, fmt.Sprintf("migration.budget must be positive, got %s", m.Budget))
	}
	if m.LagThreshold < 1 {
		problems = append(problems, fmt.Sprintf("migration.lagthreshold must be at least 1, got %d", m.LagThreshold))
	}
	if m.TickPeriod <= 0 {
		problems = append(problems, fmt.Sprintf("migration.tickperiod must be positive, got %s", m.TickPeriod))
	}
	if m.SourceDataVersion < datafix.LegacyDataVersion {
		problems = append(problems, fmt.Sprintf("migration.sourcedataversion %d predates the oldest supported version %d",
			m.SourceDataVersion, datafix.LegacyDataVersion))
	}
	if m.SourceDataVersion > m.TargetDataVersion {
		problems = append(problems, fmt.Sprintf("migration.sourcedataversion %d is newer than targetdataversion %d",
			m.SourceDataVersion, m.TargetDataVersion))
	}
	if m.ReadAhead < 1 {
		problems = append(problems, fmt.Sprintf("migration.readahead must be at least 1, got %d", m.ReadAhead))
	}

	if len(problems) > 0 {
		return fmt.Errorf("migration settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateBackupSettings(b *BackupSettings) error {
	if b.Enabled && strings.TrimSpace(b.Dir) == "" {
		return fmt.Errorf("backup.dir must be set when backups are enabled")
	}
	return nil
}

func validateTelemetrySettings(t *TelemetrySettings) error {
	if !t.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(t.Listen); err != nil {
		return fmt.Errorf("telemetry.listen %q is not a host:port address: %w", t.Listen, err)
	}
	return nil
}

func validateNotifySettings(n *NotifySettings) error {
	if !n.Enabled {
		return nil
	}
	if len(n.URLs) == 0 {
		return fmt.Errorf("notify.urls must list at least one service URL when notifications are enabled")
	}
	if n.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be positive, got %s", n.Timeout)
	}
	return nil
}
