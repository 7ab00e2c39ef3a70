package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/errors"
)

func newTestMigrationMetrics(t *testing.T) *MigrationMetrics {
	t.Helper()
	m, err := NewMigrationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestRecordFile(t *testing.T) {
	m := newTestMigrationMetrics(t)

	m.RecordFile(LabelMigrated)
	m.RecordFile(LabelMigrated)
	m.RecordFile(LabelCorrupt)

	assert.InDelta(t, 2, testutil.ToFloat64(m.filesTotal.WithLabelValues(LabelMigrated)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.filesTotal.WithLabelValues(LabelCorrupt)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.filesTotal.WithLabelValues(LabelUnreadable)), 0)
}

func TestRecordEntries(t *testing.T) {
	m := newTestMigrationMetrics(t)

	m.RecordEntries(3, 1, 0)
	m.RecordEntries(2, 0, 4)

	assert.InDelta(t, 5, testutil.ToFloat64(m.entriesTotal.WithLabelValues(LabelRemapped)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.entriesTotal.WithLabelValues(LabelDropped)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.entriesTotal.WithLabelValues(LabelPassed)), 0)
}

func TestThrottleGauges(t *testing.T) {
	m := newTestMigrationMetrics(t)

	m.SetBatchSize(15)
	m.SetLagStreak(3)
	m.RecordStepDown()
	m.SetCompleted(true)

	assert.InDelta(t, 15, testutil.ToFloat64(m.batchSize), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.lagStreak), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stepDownsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.completed), 0)

	m.SetCompleted(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.completed), 0)
}

func TestObserveBatch(t *testing.T) {
	m := newTestMigrationMetrics(t)

	m.ObserveBatch(10 * time.Millisecond)
	m.ObserveBatch(30 * time.Millisecond)

	var metric dto.Metric
	require.NoError(t, m.batchDuration.Write(&metric))
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.04, metric.GetHistogram().GetSampleSum(), 1e-9)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewMigrationMetrics(registry)
	require.NoError(t, err)

	_, err = NewMigrationMetrics(registry)
	assert.Error(t, err)
}

func TestErrorMetricsCountsByCategory(t *testing.T) {
	m, err := NewErrorMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	ee := errors.Newf("boom").
		Component("migration").
		Category(errors.CategoryFileIO).
		Build()
	m.RecordError(ee)
	m.RecordError(ee)
	m.RecordError(nil)

	count := testutil.ToFloat64(m.errorsTotal.WithLabelValues("migration", string(errors.CategoryFileIO)))
	assert.InDelta(t, 2, count, 0)
}
