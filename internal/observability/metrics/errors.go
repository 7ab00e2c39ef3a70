package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hellominers/statsupdater/internal/errors"
)

// ErrorMetrics counts categorized errors as they are built.
type ErrorMetrics struct {
	errorsTotal *prometheus.CounterVec
}

// NewErrorMetrics creates and registers the error counter
func NewErrorMetrics(registry *prometheus.Registry) (*ErrorMetrics, error) {
	m := &ErrorMetrics{
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsupdater_errors_total",
				Help: "Total number of errors raised, by component and category",
			},
			[]string{"component", "category"},
		),
	}
	if err := registry.Register(m.errorsTotal); err != nil {
		return nil, err
	}
	return m, nil
}

// Hook returns an errors.ErrorHook feeding this counter.
func (m *ErrorMetrics) Hook() errors.ErrorHook {
	return m.RecordError
}

// RecordError counts one error
func (m *ErrorMetrics) RecordError(ee *errors.EnhancedError) {
	if ee == nil {
		return
	}
	m.errorsTotal.WithLabelValues(ee.GetComponent(), ee.GetCategory()).Inc()
}
