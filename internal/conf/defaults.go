// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/hellominers/statsupdater/internal/datafix"
)

// Default migration tuning. The budget and lag threshold keep a tick well
// inside a 50ms host frame.
const (
	DefaultBatchSize         = 15
	DefaultBudget            = 20 * time.Millisecond
	DefaultLagThreshold      = 5
	DefaultTickPeriod        = 50 * time.Millisecond
	DefaultSourceDataVersion = datafix.LegacyDataVersion
	DefaultTargetDataVersion = 3839
	DefaultReadAhead         = 64
	DefaultPattern           = "*.json"
	DefaultNotifyTimeout     = 10 * time.Second
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("migration.statsdir", "")
	v.SetDefault("migration.pattern", DefaultPattern)
	v.SetDefault("migration.batchsize", DefaultBatchSize)
	v.SetDefault("migration.budget", DefaultBudget)
	v.SetDefault("migration.lagthreshold", DefaultLagThreshold)
	v.SetDefault("migration.tickperiod", DefaultTickPeriod)
	v.SetDefault("migration.sourcedataversion", DefaultSourceDataVersion)
	v.SetDefault("migration.targetdataversion", DefaultTargetDataVersion)
	v.SetDefault("migration.readahead", DefaultReadAhead)

	v.SetDefault("mapping.file", "mappings.yaml")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.dir", "stats-backup")
	v.SetDefault("backup.checkspace", true)

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/statsupdater.log")
	v.SetDefault("logging.fileoutput.level", "info")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "127.0.0.1:8090")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.urls", []string{})
	v.SetDefault("notify.timeout", DefaultNotifyTimeout)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
}
