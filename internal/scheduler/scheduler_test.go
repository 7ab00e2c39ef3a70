package scheduler

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hellominers/statsupdater/internal/logger"
	"github.com/hellominers/statsupdater/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

// countdownTask finishes after n calls
type countdownTask struct {
	remaining atomic.Int32
	calls     atomic.Int32
	once      sync.Once
	done      chan struct{}
}

func newCountdownTask(n int32) *countdownTask {
	t := &countdownTask{done: make(chan struct{})}
	t.remaining.Store(n)
	return t
}

func (t *countdownTask) ProcessBatch() {
	t.calls.Add(1)
	if t.remaining.Add(-1) <= 0 {
		t.once.Do(func() { close(t.done) })
	}
}

func (t *countdownTask) Done() <-chan struct{} {
	return t.done
}

func TestRunStopsWhenTaskFinishes(t *testing.T) {
	task := newCountdownTask(3)
	s, err := New(task, time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, int32(3), task.calls.Load())
	assert.Equal(t, int64(3), s.Ticks())
}

func TestRunStopsOnCancel(t *testing.T) {
	task := newCountdownTask(1 << 30)
	s, err := New(task, time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return task.calls.Load() >= 2 }, testutil.DefaultTestTimeout, time.Millisecond)
	cancel()

	err = testutil.WaitForValue(t, errCh, testutil.DefaultTestTimeout, "scheduler did not stop after cancel")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunReturnsImmediatelyForFinishedTask(t *testing.T) {
	task := newCountdownTask(0)
	task.ProcessBatch()

	s, err := New(task, time.Hour, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	assert.Zero(t, s.Ticks())
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, time.Millisecond, testLogger())
	require.Error(t, err)

	_, err = New(newCountdownTask(1), 0, testLogger())
	require.Error(t, err)
}
