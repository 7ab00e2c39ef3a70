// Package migrate implements the migrate command: it drives the batch
// processor from a tick scheduler until every stats file has been visited.
package migrate

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hellominers/statsupdater/internal/buildinfo"
	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/datafix"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
	"github.com/hellominers/statsupdater/internal/mapping"
	"github.com/hellominers/statsupdater/internal/migration"
	"github.com/hellominers/statsupdater/internal/notify"
	"github.com/hellominers/statsupdater/internal/observability"
	"github.com/hellominers/statsupdater/internal/observability/metrics"
	"github.com/hellominers/statsupdater/internal/scheduler"
	"github.com/hellominers/statsupdater/internal/statsfile"
	"github.com/hellominers/statsupdater/internal/telemetry"
)

// Command creates the migrate command.
func Command(build *buildinfo.Context, settings *conf.Settings) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy stats files in place",
		Long: "Walk the stats directory a few files per tick, convert each legacy document to the " +
			"current format and write it back. Lag on the host shrinks the batch size.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("backup") {
				settings.Backup.Enabled = backup
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := telemetry.InitSentry(settings, build.GetVersion()); err != nil {
				logger.Global().Module("migrate").Warn("Error reporting unavailable", logger.Error(err))
			}
			defer telemetry.Shutdown(metrics.ShutdownTimeout)

			_, err := Run(ctx, settings)
			return err
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a zstd-compressed copy of every file before rewriting it")

	return cmd
}

// Run performs a migration until the directory is exhausted or ctx is
// cancelled. Cancellation is not an error: the processor is closed, its
// directory handle released, and the partial progress returned.
func Run(ctx context.Context, settings *conf.Settings) (migration.Stats, error) {
	log := logger.Global().Module("migrate")

	tables, err := mapping.LoadFile(settings.Mapping.File)
	if err != nil {
		return migration.Stats{}, err
	}
	log.Info("Loaded id mapping tables",
		logger.String("file", settings.Mapping.File),
		logger.Int("blocks", tables.Blocks.Len()),
		logger.Int("items", tables.Items.Len()))

	ms := settings.Migration
	source, err := statsfile.OpenDir(ms.StatsDir, ms.Pattern, ms.ReadAhead, log.Module("source"))
	if err != nil {
		return migration.Stats{}, err
	}

	var backup *statsfile.Backup
	if settings.Backup.Enabled {
		if err := checkBackupSpace(settings); err != nil {
			_ = source.Close()
			return migration.Stats{}, err
		}
		backup = statsfile.NewBackup(settings.Backup.Dir)
	}

	notifier, err := notify.New(&settings.Notify)
	if err != nil {
		log.Warn("Completion notifications disabled", logger.Error(err))
	}

	var (
		recorder migration.Recorder
		wg       sync.WaitGroup
		quit     = make(chan struct{})
	)
	defer func() {
		close(quit)
		wg.Wait()
	}()

	if settings.Telemetry.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			_ = source.Close()
			return migration.Stats{}, err
		}
		m.TrackErrors()
		defer errors.ClearErrorHooks()

		endpoint, err := observability.NewEndpoint(settings, m)
		if err == nil {
			err = endpoint.Start(&wg, quit)
		}
		if err != nil {
			_ = source.Close()
			return migration.Stats{}, err
		}
		recorder = m.Migration
	}

	proc, err := migration.NewProcessor(&migration.ProcessorConfig{
		Source:        source,
		Items:         tables.ItemLookup(),
		Blocks:        tables.BlockLookup(),
		Transformer:   datafix.NewLegacy(),
		Backup:        backup,
		Recorder:      recorder,
		Logger:        log.Module("processor"),
		BatchSize:     ms.BatchSize,
		Budget:        ms.Budget,
		LagThreshold:  ms.LagThreshold,
		SourceVersion: ms.SourceDataVersion,
		TargetVersion: ms.TargetDataVersion,
	})
	if err != nil {
		_ = source.Close()
		return migration.Stats{}, err
	}

	sched, err := scheduler.New(proc, ms.TickPeriod, log.Module("scheduler"))
	if err != nil {
		_ = proc.Close()
		return migration.Stats{}, err
	}

	log.Info("Starting stats migration",
		logger.String("dir", ms.StatsDir),
		logger.Int("batch_size", ms.BatchSize),
		logger.Duration("tick_period", ms.TickPeriod),
		logger.Bool("backup", backup != nil))

	started := time.Now()
	runErr := sched.Run(ctx)

	// no-op after natural completion
	if err := proc.Close(); err != nil {
		log.Warn("Failed to release stats directory", logger.Error(err))
	}

	stats := proc.Stats()
	if notifier != nil {
		title, msg := notify.Summary(ms.StatsDir, stats, time.Since(started))
		if err := notifier.Send(title, msg); err != nil {
			log.Warn("Failed to send completion notification", logger.Error(err))
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			log.Info("Stats migration interrupted",
				logger.Int("files_visited", stats.Visited),
				logger.Int("files_migrated", stats.Migrated))
			return stats, nil
		}
		return stats, runErr
	}
	return stats, nil
}

// checkBackupSpace refuses to start when the backup volume could not hold an
// uncompressed copy of every matching file.
func checkBackupSpace(settings *conf.Settings) error {
	if !settings.Backup.CheckSpace {
		return nil
	}
	size, err := statsfile.MatchingSize(settings.Migration.StatsDir, settings.Migration.Pattern)
	if err != nil {
		return err
	}
	return statsfile.EnsureBackupSpace(settings.Backup.Dir, uint64(size)) //nolint:gosec // sizes are never negative
}
