// Package notify sends a one-off summary to chat services when a migration
// finishes.
package notify

import (
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/migration"
	"github.com/hellominers/statsupdater/internal/privacy"
)

// Notifier delivers messages through one shoutrrr router. A nil Notifier is
// valid and drops everything.
type Notifier struct {
	urls   []string
	sender *router.ServiceRouter
}

// New builds a Notifier from settings. It returns nil, nil when
// notifications are disabled.
func New(settings *conf.NotifySettings) (*Notifier, error) {
	if settings == nil || !settings.Enabled {
		return nil, nil
	}
	if len(settings.URLs) == 0 {
		return nil, errors.Newf("no notification URLs configured").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(settings.URLs...)
	if err != nil {
		// service URLs carry tokens
		return nil, errors.New(privacy.WrapError(err)).
			Category(errors.CategoryIntegration).
			Context("operation", "create-notification-sender").
			Context("services", len(settings.URLs)).
			Build()
	}
	if settings.Timeout > 0 {
		sender.Timeout = settings.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &Notifier{urls: slices.Clone(settings.URLs), sender: sender}, nil
}

// Send delivers message with an optional title. Only the first failure is
// returned, with credentials stripped.
func (n *Notifier) Send(title, message string) error {
	if n == nil || n.sender == nil {
		return nil
	}

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			return errors.New(privacy.WrapError(err)).
				Category(errors.CategoryIntegration).
				Context("operation", "send-notification").
				Build()
		}
	}
	return nil
}

// Summary renders the completion message for stats.
func Summary(dir string, stats migration.Stats, elapsed time.Duration) (title, message string) {
	title = "Stats migration complete"
	if stats.Cancelled {
		title = "Stats migration interrupted"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n", dir)
	fmt.Fprintf(&b, "Files visited: %s, migrated: %s\n",
		humanize.Comma(int64(stats.Visited)), humanize.Comma(int64(stats.Migrated)))
	skipped := stats.AlreadyCurrent + stats.Corrupt + stats.Unreadable + stats.TransformFailed
	if skipped > 0 {
		fmt.Fprintf(&b, "Skipped: %d already current, %d corrupt, %d unreadable, %d not transformable\n",
			stats.AlreadyCurrent, stats.Corrupt, stats.Unreadable, stats.TransformFailed)
	}
	if stats.WriteFailed > 0 {
		fmt.Fprintf(&b, "Write failures: %d\n", stats.WriteFailed)
	}
	fmt.Fprintf(&b, "Entries remapped: %s, dropped: %s\n",
		humanize.Comma(int64(stats.EntriesRemapped)), humanize.Comma(int64(stats.EntriesDropped)))
	fmt.Fprintf(&b, "Took %s over %d ticks, final batch size %d",
		elapsed.Round(time.Millisecond), stats.Ticks, stats.BatchSize)

	return title, b.String()
}
