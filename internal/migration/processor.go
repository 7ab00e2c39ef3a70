// Package migration converts legacy stats documents a few at a time from a
// periodic tick, shrinking its batch when ticks run over budget.
package migration

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hellominers/statsupdater/internal/datafix"
	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
	"github.com/hellominers/statsupdater/internal/mapping"
	"github.com/hellominers/statsupdater/internal/statsfile"
)

// Defaults applied by NewProcessor when the config leaves a field zero.
const (
	DefaultBatchSize     = 15
	DefaultBudget        = 20 * time.Millisecond
	DefaultLagThreshold  = 5
	DefaultSourceVersion = datafix.LegacyDataVersion
	DefaultTargetVersion = 3839
)

// File outcomes reported to the Recorder.
const (
	OutcomeMigrated        = "migrated"
	OutcomeAlreadyCurrent  = "already_current"
	OutcomeCorrupt         = "corrupt"
	OutcomeUnreadable      = "unreadable"
	OutcomeTransformFailed = "transform_failed"
	OutcomeWriteFailed     = "write_failed"
)

const completionBanner = `


=============================================================
=============================================================
=============== Stats file updating complete! ===============
=============================================================
=============================================================

`

// Recorder receives progress measurements. The Prometheus collector in
// observability/metrics implements it.
type Recorder interface {
	RecordFile(outcome string)
	RecordEntries(remapped, dropped, passed int)
	ObserveBatch(d time.Duration)
	SetBatchSize(n int)
	SetLagStreak(n int)
	RecordStepDown()
	SetCompleted(done bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordFile(string) {}
func (nopRecorder) RecordEntries(int, int, int) {}
func (nopRecorder) ObserveBatch(time.Duration) {}
func (nopRecorder) SetBatchSize(int) {}
func (nopRecorder) SetLagStreak(int) {}
func (nopRecorder) RecordStepDown() {}
func (nopRecorder) SetCompleted(bool) {}

// ProcessorConfig configures a Processor. Source, Items, Blocks and
// Transformer are required.
type ProcessorConfig struct {
	Source      statsfile.Source
	Items       mapping.Lookup
	Blocks      mapping.Lookup
	Transformer datafix.Transformer
	Backup      *statsfile.Backup
	Recorder    Recorder
	Logger      logger.Logger

	BatchSize     int
	Budget        time.Duration
	LagThreshold  int
	SourceVersion int
	TargetVersion int

	// Clock is used to time batches; defaults to time.Now.
	Clock func() time.Time
}

// Stats is a snapshot of a processor's progress.
type Stats struct {
	Visited         int
	Migrated        int
	AlreadyCurrent  int
	Corrupt         int
	Unreadable      int
	TransformFailed int
	WriteFailed     int
	EntriesRemapped int
	EntriesDropped  int
	EntriesPassed   int
	Ticks           int
	StepDowns       int
	BatchSize       int
	LagStreak       int
	Completed       bool
	Cancelled       bool
	LastBatch       time.Duration
}

// Processor owns the work queue and throttle state. ProcessBatch must not be
// called concurrently with itself; Close, Done and Stats are safe from any goroutine.
type Processor struct {
	source      statsfile.Source
	transformer datafix.Transformer
	remapper    *Remapper
	backup      *statsfile.Backup
	recorder    Recorder
	log         logger.Logger
	now         func() time.Time

	sourceVersion int
	targetVersion int
	throttle      *Throttle

	mu    sync.Mutex
	stats Stats

	stopOnce sync.Once
	done     chan struct{}
	closeErr error
}

// NewProcessor validates cfg and returns a ready Processor.
func NewProcessor(cfg *ProcessorConfig) (*Processor, error) {
	if cfg == nil || cfg.Source == nil || cfg.Transformer == nil || cfg.Items == nil || cfg.Blocks == nil {
		return nil, errors.Newf("processor needs a source, a transformer and both mappings").
			Category(errors.CategoryValidation).
			Build()
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("migration")
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	threshold := cfg.LagThreshold
	if threshold <= 0 {
		threshold = DefaultLagThreshold
	}
	sourceVersion := cfg.SourceVersion
	if sourceVersion == 0 {
		sourceVersion = DefaultSourceVersion
	}
	targetVersion := cfg.TargetVersion
	if targetVersion == 0 {
		targetVersion = DefaultTargetVersion
	}
	if sourceVersion > targetVersion {
		return nil, errors.Newf("source data version %d is newer than target %d", sourceVersion, targetVersion).
			Category(errors.CategoryValidation).
			Build()
	}

	p := &Processor{
		source:        cfg.Source,
		transformer:   cfg.Transformer,
		remapper:      NewRemapper(cfg.Items, cfg.Blocks),
		backup:        cfg.Backup,
		recorder:      recorder,
		log:           log,
		now:           now,
		sourceVersion: sourceVersion,
		targetVersion: targetVersion,
		throttle:      NewThrottle(batchSize, budget, threshold),
		done:          make(chan struct{}),
	}
	p.stats.BatchSize = batchSize
	recorder.SetBatchSize(batchSize)
	recorder.SetLagStreak(0)
	recorder.SetCompleted(false)

	return p, nil
}

// ProcessBatch converts up to BatchSize files. It is the tick callback and
// never returns an error: every failure is logged and turned into a control
// decision. A corrupt, unreadable, already-current or untransformable file
// ends the tick early without running the throttle.
func (p *Processor) ProcessBatch() {
	if p.stopped() {
		return
	}

	start := p.now()
	p.mu.Lock()
	p.stats.Ticks++
	p.mu.Unlock()

	batchSize := p.throttle.BatchSize()
	for processed := 0; processed < batchSize && p.source.HasNext(); processed++ {
		h, ok := p.source.Next()
		if !ok {
			break
		}
		if !p.convert(h) {
			return
		}
	}

	if !p.source.HasNext() {
		p.complete()
		return
	}

	p.adjust(p.now().Sub(start))
}

// adjust feeds the tick duration to the throttle and logs the outcome.
func (p *Processor) adjust(elapsed time.Duration) {
	steppedDown := p.throttle.Observe(elapsed)
	batchSize, streak := p.throttle.BatchSize(), p.throttle.LagStreak()

	p.mu.Lock()
	p.stats.BatchSize = batchSize
	p.stats.LagStreak = streak
	p.stats.LastBatch = elapsed
	if steppedDown {
		p.stats.StepDowns++
	}
	migrated := p.stats.Migrated
	p.mu.Unlock()

	p.recorder.ObserveBatch(elapsed)
	p.recorder.SetBatchSize(batchSize)
	p.recorder.SetLagStreak(streak)

	if steppedDown {
		p.recorder.RecordStepDown()
		p.log.Warn("Server lag detected, decreased batch size",
			logger.Duration("elapsed", elapsed),
			logger.Duration("budget", p.throttle.Budget()),
			logger.Int("batch_size", batchSize))
		return
	}

	p.log.Info("Batch processed",
		logger.Duration("elapsed", elapsed),
		logger.Int("batch_size", batchSize),
		logger.Int("files_migrated", migrated))
}

// convert migrates one file and reports whether the tick may continue.
func (p *Processor) convert(h statsfile.Handle) bool {
	p.mu.Lock()
	p.stats.Visited++
	p.mu.Unlock()

	log := p.log.With(logger.String("file", h.Path))

	doc, original, err := statsfile.ReadDocument(h)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryFileParsing) {
			log.Warn("Stats file has invalid JSON, skipping", logger.Error(err))
			p.countFile(OutcomeCorrupt)
		} else {
			log.Warn("IO error while loading stats file, skipping", logger.Error(err))
			p.countFile(OutcomeUnreadable)
		}
		return false
	}

	if doc.IsCurrent() {
		log.Info("Stats file is already up-to-date, skipping")
		p.countFile(OutcomeAlreadyCurrent)
		return false
	}

	updated, err := p.transformer.Transform(doc, p.sourceVersion, p.targetVersion)
	if err != nil {
		log.Warn("Stats file could not be transformed, skipping", logger.Error(err))
		p.countFile(OutcomeTransformFailed)
		return false
	}
	stats, ok := updated.Stats()
	if !ok {
		log.Warn("Transformed stats file has no stats section, skipping")
		p.countFile(OutcomeTransformFailed)
		return false
	}

	res := p.remapper.Remap(stats)
	for _, u := range res.Unresolved {
		log.Warn("Ignoring unrecognized legacy id",
			logger.String("category", u.Category),
			logger.Int("legacy_id", u.ID))
	}
	p.countEntries(res)

	updated[statsfile.VersionKey] = p.targetVersion

	if p.backup != nil {
		if err := p.backup.Save(h, original); err != nil {
			log.Error("Failed to back up stats file, leaving it unchanged", logger.Error(err))
			p.countFile(OutcomeWriteFailed)
			return true
		}
	}

	if err := statsfile.WriteDocument(h, updated); err != nil {
		log.Error("Failed to write stats file", logger.Error(err))
		p.countFile(OutcomeWriteFailed)
		return true
	}

	if id, isPlayer := h.PlayerID(); isPlayer {
		log.Debug("Stats file migrated", logger.String("player_id", id.String()))
	}
	p.countFile(OutcomeMigrated)
	return true
}

func (p *Processor) countFile(outcome string) {
	p.mu.Lock()
	switch outcome {
	case OutcomeMigrated:
		p.stats.Migrated++
	case OutcomeAlreadyCurrent:
		p.stats.AlreadyCurrent++
	case OutcomeCorrupt:
		p.stats.Corrupt++
	case OutcomeUnreadable:
		p.stats.Unreadable++
	case OutcomeTransformFailed:
		p.stats.TransformFailed++
	case OutcomeWriteFailed:
		p.stats.WriteFailed++
	}
	p.mu.Unlock()
	p.recorder.RecordFile(outcome)
}

func (p *Processor) countEntries(res RemapResult) {
	p.mu.Lock()
	p.stats.EntriesRemapped += res.Remapped
	p.stats.EntriesDropped += res.Dropped
	p.stats.EntriesPassed += res.Passed
	p.mu.Unlock()
	p.recorder.RecordEntries(res.Remapped, res.Dropped, res.Passed)
}

// complete logs the banner and stops the processor once the queue is drained.
// If Close got there first nothing is logged.
func (p *Processor) complete() {
	p.stopOnce.Do(func() {
		s := p.Stats()
		p.log.Info(completionBanner,
			logger.Int("files_visited", s.Visited),
			logger.Int("files_migrated", s.Migrated),
			logger.Int("files_skipped", s.AlreadyCurrent+s.Corrupt+s.Unreadable+s.TransformFailed),
			logger.Int("write_failures", s.WriteFailed),
			logger.String("entries_remapped", humanize.Comma(int64(s.EntriesRemapped))),
			logger.Int("entries_dropped", s.EntriesDropped))

		p.mu.Lock()
		p.stats.Completed = true
		p.mu.Unlock()
		p.recorder.SetCompleted(true)

		p.release()
	})
}

// Close cancels the migration from outside, releasing the source. It is safe
// to call any number of times and after natural completion.
func (p *Processor) Close() error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stats.Cancelled = true
		p.mu.Unlock()

		p.release()
	})
	return p.closeErr
}

// release closes the source and signals Done. Callers hold stopOnce.
func (p *Processor) release() {
	if err := p.source.Close(); err != nil {
		p.log.Warn("Failed to release stats directory", logger.Error(err))
		p.closeErr = err
	}
	if p.backup != nil {
		if err := p.backup.Close(); err != nil {
			p.log.Warn("Failed to release backup encoder", logger.Error(err))
		}
	}
	close(p.done)
}

// Done is closed once the processor has completed or been closed.
func (p *Processor) Done() <-chan struct{} {
	return p.done
}

func (p *Processor) stopped() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stats returns a snapshot of progress counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
