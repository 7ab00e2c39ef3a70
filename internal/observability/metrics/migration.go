// Package metrics provides Prometheus collectors for the stats migration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MigrationMetrics contains Prometheus metrics for the batch migration.
// It satisfies migration.Recorder.
type MigrationMetrics struct {
	registry *prometheus.Registry

	filesTotal     *prometheus.CounterVec
	entriesTotal   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	batchSize      prometheus.Gauge
	lagStreak      prometheus.Gauge
	stepDownsTotal prometheus.Counter
	completed      prometheus.Gauge
}

// NewMigrationMetrics creates and registers new migration metrics
func NewMigrationMetrics(registry *prometheus.Registry) (*MigrationMetrics, error) {
	m := &MigrationMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *MigrationMetrics) initMetrics() error {
	m.filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statsupdater_files_total",
			Help: "Total number of stats files visited, by outcome",
		},
		[]string{"outcome"}, // outcome: migrated, already_current, corrupt, unreadable, transform_failed, write_failed
	)

	m.entriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statsupdater_entries_total",
			Help: "Total number of stat entries handled by the id remapper",
		},
		[]string{"result"}, // result: remapped, dropped, passed
	)

	m.batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "statsupdater_batch_duration_seconds",
		Help:    "Wall time spent processing one batch",
		Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount12), // 0.1ms to ~200ms
	})

	m.batchSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "statsupdater_batch_size",
		Help: "Current number of files processed per tick",
	})

	m.lagStreak = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "statsupdater_lag_streak",
		Help: "Consecutive batches that exceeded the time budget",
	})

	m.stepDownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "statsupdater_batch_step_downs_total",
		Help: "Total number of batch size reductions caused by lag",
	})

	m.completed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "statsupdater_completed",
		Help: "1 once every stats file has been visited",
	})

	return nil
}

// Describe implements the Collector interface
func (m *MigrationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.filesTotal.Describe(ch)
	m.entriesTotal.Describe(ch)
	m.batchDuration.Describe(ch)
	m.batchSize.Describe(ch)
	m.lagStreak.Describe(ch)
	m.stepDownsTotal.Describe(ch)
	m.completed.Describe(ch)
}

// Collect implements the Collector interface
func (m *MigrationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.filesTotal.Collect(ch)
	m.entriesTotal.Collect(ch)
	m.batchDuration.Collect(ch)
	m.batchSize.Collect(ch)
	m.lagStreak.Collect(ch)
	m.stepDownsTotal.Collect(ch)
	m.completed.Collect(ch)
}

// RecordFile counts a visited file under its outcome label
func (m *MigrationMetrics) RecordFile(outcome string) {
	m.filesTotal.WithLabelValues(outcome).Inc()
}

// RecordEntries adds the remapper totals for one file
func (m *MigrationMetrics) RecordEntries(remapped, dropped, passed int) {
	if remapped > 0 {
		m.entriesTotal.WithLabelValues(LabelRemapped).Add(float64(remapped))
	}
	if dropped > 0 {
		m.entriesTotal.WithLabelValues(LabelDropped).Add(float64(dropped))
	}
	if passed > 0 {
		m.entriesTotal.WithLabelValues(LabelPassed).Add(float64(passed))
	}
}

// ObserveBatch records how long one batch took
func (m *MigrationMetrics) ObserveBatch(d time.Duration) {
	m.batchDuration.Observe(d.Seconds())
}

// SetBatchSize updates the batch size gauge
func (m *MigrationMetrics) SetBatchSize(n int) {
	m.batchSize.Set(float64(n))
}

// SetLagStreak updates the lag streak gauge
func (m *MigrationMetrics) SetLagStreak(n int) {
	m.lagStreak.Set(float64(n))
}

// RecordStepDown counts a batch size reduction
func (m *MigrationMetrics) RecordStepDown() {
	m.stepDownsTotal.Inc()
}

// SetCompleted flips the completion gauge
func (m *MigrationMetrics) SetCompleted(done bool) {
	if done {
		m.completed.Set(1)
		return
	}
	m.completed.Set(0)
}
