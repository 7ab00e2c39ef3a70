// Package scan implements a read-only survey of the stats directory.
package scan

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
	"github.com/hellominers/statsupdater/internal/statsfile"
)

// Report counts stats files by state.
type Report struct {
	Legacy     int
	Current    int
	Corrupt    int
	Unreadable int
	Players    int
	Bytes      uint64
}

// Total returns the number of files visited.
func (r Report) Total() int {
	return r.Legacy + r.Current + r.Corrupt + r.Unreadable
}

// Command creates the scan command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Count legacy and current stats files without modifying them",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := Scan(settings)
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), settings.Migration.StatsDir, report)
		},
	}
}

// Scan classifies every matching file in the configured directory.
func Scan(settings *conf.Settings) (Report, error) {
	log := logger.Global().Module("scan")
	ms := settings.Migration

	source, err := statsfile.OpenDir(ms.StatsDir, ms.Pattern, ms.ReadAhead, log)
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Warn("Failed to release stats directory", logger.Error(err))
		}
	}()

	var report Report
	for {
		h, ok := source.Next()
		if !ok {
			break
		}

		doc, raw, err := statsfile.ReadDocument(h)
		switch {
		case errors.IsCategory(err, errors.CategoryFileParsing):
			log.Debug("Stats file has invalid JSON", logger.String("file", h.Path), logger.Error(err))
			report.Corrupt++
			continue
		case err != nil:
			log.Debug("Stats file is unreadable", logger.String("file", h.Path), logger.Error(err))
			report.Unreadable++
			continue
		}

		report.Bytes += uint64(len(raw))
		if _, isPlayer := h.PlayerID(); isPlayer {
			report.Players++
		}
		if doc.IsCurrent() {
			report.Current++
		} else {
			report.Legacy++
		}
	}

	return report, nil
}

// Print writes a human-readable summary of report.
func Print(w io.Writer, dir string, report Report) error {
	_, err := fmt.Fprintf(w,
		"Scanned %s stats files (%s) in %s\n"+
			"  legacy:     %s\n"+
			"  current:    %s\n"+
			"  corrupt:    %s\n"+
			"  unreadable: %s\n"+
			"  player ids: %s\n",
		humanize.Comma(int64(report.Total())), humanize.Bytes(report.Bytes), dir,
		humanize.Comma(int64(report.Legacy)),
		humanize.Comma(int64(report.Current)),
		humanize.Comma(int64(report.Corrupt)),
		humanize.Comma(int64(report.Unreadable)),
		humanize.Comma(int64(report.Players)))
	return err
}
