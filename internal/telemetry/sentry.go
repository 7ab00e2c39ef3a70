// Package telemetry provides opt-in, privacy-filtered error reporting to Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
	"github.com/hellominers/statsupdater/internal/privacy"
)

const appName = "statsupdater"

var sentryInitialized atomic.Bool

// InitSentry initializes the Sentry SDK and routes categorized errors to it.
// It is a no-op unless error reporting is explicitly enabled.
func InitSentry(settings *conf.Settings, version string) error {
	return initSentry(settings, version, nil)
}

// initSentry allows tests to inject a transport.
func initSentry(settings *conf.Settings, version string, transport sentry.Transport) error {
	if settings == nil || !settings.Sentry.Enabled {
		log.Debug("Sentry error reporting is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Sentry.DSN,
		Transport:  transport,
		SampleRate: 1.0,

		// Privacy-compliant settings
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("%s@%s", appName, version),

		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryIntegration).
			Context("operation", "sentry-init").
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetContext("application", map[string]any{
			"name":       appName,
			"version":    version,
			"go_version": runtime.Version(),
		})
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	log.Info("Sentry error reporting initialized", logger.String("version", version))
	return nil
}

// applyPrivacyFilters strips identifying data from an outgoing event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// Shutdown detaches the error reporter and flushes buffered events.
func Shutdown(timeout time.Duration) {
	if !sentryInitialized.CompareAndSwap(true, false) {
		return
	}
	errors.SetTelemetryReporter(nil)
	if !sentry.Flush(timeout) {
		log.Warn("Timed out flushing Sentry events", logger.Duration("timeout", timeout))
	}
}
