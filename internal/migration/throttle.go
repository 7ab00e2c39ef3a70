package migration

import "time"

// Throttle shrinks the batch size after sustained overruns of the per-tick
// budget. It never grows the batch again and never goes below one file.
type Throttle struct {
	budget    time.Duration
	threshold int
	batchSize int
	lagStreak int
}

// NewThrottle returns a Throttle starting at batchSize. A tick counts as
// lagging when it takes longer than budget; the batch shrinks by one once
// more than threshold consecutive ticks lag.
func NewThrottle(batchSize int, budget time.Duration, threshold int) *Throttle {
	if batchSize < 1 {
		batchSize = 1
	}
	if threshold < 0 {
		threshold = 0
	}
	return &Throttle{
		budget:    budget,
		threshold: threshold,
		batchSize: batchSize,
	}
}

// Observe records the duration of one tick and reports whether the batch
// size was reduced as a result.
func (t *Throttle) Observe(d time.Duration) (steppedDown bool) {
	if t.batchSize <= 1 || d <= t.budget {
		t.lagStreak = 0
		return false
	}

	t.lagStreak++
	if t.lagStreak <= t.threshold {
		return false
	}

	t.batchSize--
	t.lagStreak = 0
	return true
}

// BatchSize returns the number of files to process per tick.
func (t *Throttle) BatchSize() int {
	return t.batchSize
}

// LagStreak returns the number of consecutive lagging ticks seen so far.
func (t *Throttle) LagStreak() int {
	return t.lagStreak
}

// Budget returns the per-tick budget.
func (t *Throttle) Budget() time.Duration {
	return t.budget
}
