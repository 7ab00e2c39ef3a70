package observability

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
	metricspkg "github.com/hellominers/statsupdater/internal/observability/metrics"
)

// Endpoint serves the Prometheus scrape endpoint while the migration runs.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	debug         bool
	metrics       *Metrics

	mu       sync.Mutex
	listener net.Listener
}

// NewEndpoint creates a new telemetry Endpoint. It fails when telemetry is
// disabled in settings. pprof routes are added in debug mode.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, errors.Newf("telemetry not enabled in settings").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &Endpoint{
		listenAddress: settings.Telemetry.Listen,
		debug:         settings.Debug,
		metrics:       metrics,
	}, nil
}

// Start binds the listen address, serves in a separate goroutine and shuts
// down gracefully once quitChan is closed. The listener is bound before
// Start returns so bind errors surface to the caller.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	if e.debug {
		RegisterDebugHandlers(mux)
	}

	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryNetwork).
			Context("address", e.listenAddress).
			Build()
	}

	e.mu.Lock()
	e.listener = ln
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricspkg.ShutdownTimeout,
	}
	e.mu.Unlock()

	wg.Go(func() {
		log.Info("Telemetry endpoint starting", logger.String("address", ln.Addr().String()))
		if err := e.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("Telemetry HTTP server error", logger.Error(err))
		}
	})

	wg.Go(func() {
		e.gracefulShutdown(quitChan)
	})
	return nil
}

// gracefulShutdown waits for the quit signal and shuts down the server gracefully.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	log.Info("Stopping telemetry server")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		log.Error("Telemetry server shutdown error", logger.Error(err))
	}
}

// Addr returns the bound address, or the configured one before Start.
func (e *Endpoint) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.listenAddress
}
