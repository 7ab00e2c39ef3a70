package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/migration"
)

func TestNewDisabled(t *testing.T) {
	t.Parallel()

	n, err := New(&conf.NotifySettings{Enabled: false, URLs: []string{"bogus://x"}})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = New(nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNilNotifierDropsMessages(t *testing.T) {
	t.Parallel()

	var n *Notifier
	assert.NoError(t, n.Send("title", "body"))
}

func TestNewRejectsMissingURLs(t *testing.T) {
	t.Parallel()

	_, err := New(&conf.NotifySettings{Enabled: true})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestNewRejectsUnknownService(t *testing.T) {
	t.Parallel()

	_, err := New(&conf.NotifySettings{
		Enabled: true,
		URLs:    []string{"nosuchservice://secret-token@host/path"},
		Timeout: time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryIntegration))
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	stats := migration.Stats{
		Visited:         1500,
		Migrated:        1490,
		AlreadyCurrent:  6,
		Corrupt:         4,
		EntriesRemapped: 123456,
		EntriesDropped:  7,
		Ticks:           100,
		BatchSize:       12,
		Completed:       true,
	}

	title, msg := Summary("world/stats", stats, 5*time.Second+300*time.Microsecond)
	assert.Equal(t, "Stats migration complete", title)
	assert.Contains(t, msg, "Directory: world/stats")
	assert.Contains(t, msg, "Files visited: 1,500, migrated: 1,490")
	assert.Contains(t, msg, "6 already current, 4 corrupt")
	assert.Contains(t, msg, "Entries remapped: 123,456, dropped: 7")
	assert.Contains(t, msg, "Took 5s over 100 ticks, final batch size 12")
	assert.NotContains(t, msg, "Write failures")

	stats.Cancelled = true
	stats.WriteFailed = 2
	title, msg = Summary("world/stats", stats, time.Second)
	assert.Equal(t, "Stats migration interrupted", title)
	assert.Contains(t, msg, "Write failures: 2")
}
