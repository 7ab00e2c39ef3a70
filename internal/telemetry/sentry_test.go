package telemetry

import (
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
)

func initForTesting(t *testing.T) *MockTransport {
	t.Helper()

	transport := NewMockTransport()
	settings := &conf.Settings{Sentry: conf.SentrySettings{Enabled: true}}
	require.NoError(t, initSentry(settings, "test", transport))

	t.Cleanup(func() {
		Shutdown(time.Second)
	})
	return transport
}

func TestInitSentryDisabled(t *testing.T) {
	require.NoError(t, InitSentry(&conf.Settings{}, "test"))
	assert.Nil(t, errors.GetTelemetryReporter())
	assert.False(t, sentryInitialized.Load())
}

func TestCategorizedErrorsAreReported(t *testing.T) {
	transport := initForTesting(t)

	ee := errors.Newf("write failed for /srv/world/stats/0d6c5c1e-3a58-4c43-9f49-4f7b5f0f2a11.json").
		Component("migration").
		Category(errors.CategoryFileIO).
		Context("path", "/srv/world/stats/0d6c5c1e-3a58-4c43-9f49-4f7b5f0f2a11.json").
		Build()

	require.True(t, sentry.Flush(time.Second))
	events := transport.Events()
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "migration", event.Tags["component"])
	assert.Equal(t, string(errors.CategoryFileIO), event.Tags["category"])
	assert.NotContains(t, event.Message, "/srv/world")
	assert.NotContains(t, event.Message, "0d6c5c1e")
	assert.True(t, event.Timestamp.Equal(ee.Timestamp), "event carries the time the error was built")
}

func TestShutdownDetachesReporter(t *testing.T) {
	transport := initForTesting(t)
	Shutdown(time.Second)

	errors.Newf("after shutdown").Category(errors.CategoryGeneric).Build()
	assert.Empty(t, transport.Events())
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := sentry.NewEvent()
	event.User = sentry.User{ID: "player", IPAddress: "10.0.0.1"}
	event.ServerName = "mc-01"
	event.Contexts = map[string]sentry.Context{"device": {}, "os": {}, "runtime": {}, "application": {}}
	event.Extra = map[string]any{"component": "migration", "path": "/srv"}
	event.Tags = map[string]string{"hostname": "mc-01", "category": "file-io"}
	event.Message = "cannot open /srv/world/stats/0d6c5c1e-3a58-4c43-9f49-4f7b5f0f2a11.json"

	filtered := applyPrivacyFilters(event)

	assert.True(t, filtered.User.IsEmpty())
	assert.Empty(t, filtered.ServerName)
	assert.Equal(t, []string{"application"}, keys(filtered.Contexts))
	assert.Equal(t, map[string]any{"component": "migration"}, filtered.Extra)
	assert.Equal(t, map[string]string{"category": "file-io"}, filtered.Tags)
	assert.Equal(t, "cannot open .../[PLAYER_ID].json", filtered.Message)
}

func keys(m map[string]sentry.Context) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
