package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"txScope/internal/model"
	"txScope/internal/storage"
)

// Source fetches raw transactions from one ledger endpoint.
type Source interface {
	Name() string
	TxsAtHeight(ctx context.Context, height uint64) ([]model.RawRecord, error)
	TxByHash(ctx context.Context, hash string) (model.RawRecord, bool, error)
}

// LatestHeighter is implemented by sources that can report the chain tip.
type LatestHeighter interface {
	LatestHeight(ctx context.Context) (uint64, error)
}

// Timestamper is implemented by sources whose results lack block times.
type Timestamper interface {
	BlockTimestamp(ctx context.Context, height uint64) (string, error)
}

// Recorder receives fetch metrics.
type Recorder interface {
	RecordFetch(source string, duration time.Duration, err error)
	RecordHeightScanned()
}

// ErrHashNotFound is returned when no source knows the requested hash.
var ErrHashNotFound = errors.New("transaction not found")

// RunConfig holds runtime settings for the fetch runner.
type RunConfig struct {
	Heights           []uint64
	FromHeight        uint64
	ToHeight          uint64
	Hash              string
	Contract          string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	PaceEvery         int
	PaceDelay         time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Stats summarizes one run.
type Stats struct {
	Heights int
	Failed  []uint64
	Records int
}

// Runner fetches transactions by hash, explicit heights or a height range and writes the
// ones touching the configured contract to a raw sink.
type Runner struct {
	cfg        RunConfig
	primary    Source
	fallback   Source
	sink       storage.RawSink
	recorder   Recorder
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
	stats      Stats
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a Runner. fallback and recorder may be nil.
func NewRunner(cfg RunConfig, primary, fallback Source, sink storage.RawSink, recorder Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		primary:    primary,
		fallback:   fallback,
		sink:       sink,
		recorder:   recorder,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		sleep:      sleepContext,
	}
}

// Stats returns the counters of the last Run.
func (r *Runner) Stats() Stats { return r.stats }

// Run executes the fetch in the mode selected by the config: hash, heights, then range.
func (r *Runner) Run(ctx context.Context) error {
	if r.primary == nil {
		return fmt.Errorf("source is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	r.stats = Stats{}

	var err error
	switch {
	case r.cfg.Hash != "":
		err = r.runHash(ctx, strings.TrimSpace(r.cfg.Hash))
	case len(r.cfg.Heights) > 0:
		err = r.runHeights(ctx, r.cfg.Heights)
	default:
		err = r.runRange(ctx)
	}
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.Int("heights", r.stats.Heights), zap.Int("records", r.stats.Records)}
	if len(r.stats.Failed) > 0 {
		r.logger.Warn("fetch complete with failed heights", append(fields, zap.Uint64s("failed", r.stats.Failed))...)
	} else {
		r.logger.Info("fetch complete", fields...)
	}
	return nil
}

func (r *Runner) sources() []Source {
	if r.fallback == nil {
		return []Source{r.primary}
	}
	return []Source{r.primary, r.fallback}
}

func (r *Runner) runHash(ctx context.Context, hash string) error {
	for _, src := range r.sources() {
		var rec model.RawRecord
		var found bool
		err := r.withRetry(ctx, src, func(ctx context.Context) error {
			var err error
			rec, found, err = src.TxByHash(ctx, hash)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("lookup by hash failed", zap.String("source", src.Name()), zap.String("hash", hash), zap.Error(err))
			continue
		}
		if !found {
			r.logger.Info("hash not found", zap.String("source", src.Name()), zap.String("hash", hash))
			continue
		}

		records, err := r.prepare(ctx, src, []model.RawRecord{rec}, false)
		if err != nil {
			return err
		}
		return r.write(ctx, records)
	}
	return fmt.Errorf("%s: %w", hash, ErrHashNotFound)
}

func (r *Runner) runHeights(ctx context.Context, heights []uint64) error {
	for start := 0; start < len(heights); start += int(r.cfg.BatchSize) {
		end := start + int(r.cfg.BatchSize)
		if end > len(heights) {
			end = len(heights)
		}
		records, err := r.scan(ctx, heights[start:end])
		if err != nil {
			return err
		}
		if err := r.write(ctx, records); err != nil {
			return err
		}
		r.logger.Info("batch complete", zap.Int("records", len(records)), zap.Uint64s("heights", heights[start:end]))
	}
	return nil
}

func (r *Runner) runRange(ctx context.Context) error {
	from := r.cfg.FromHeight
	to := r.cfg.ToHeight
	followLatest := to == 0
	if followLatest {
		latest, err := r.latestHeight(ctx)
		if err != nil {
			return err
		}
		to = latest
	}
	if from == 0 {
		return fmt.Errorf("from height is required")
	}

	scan := HeightRange{From: from, To: to}
	key := to
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		var pending bool
		scan, key, pending = cp.Resume(from, to, followLatest)
		if !pending {
			r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to), zap.Uint64("lowest_completed", cp.LowestCompleted))
			return nil
		}
		if scan.To != to {
			r.logger.Info("resume from checkpoint", zap.Uint64("lowest_completed", cp.LowestCompleted), zap.Uint64("to", scan.To))
		}
	}

	if scan.From > scan.To {
		r.logger.Info("nothing to sync", zap.Uint64("from", scan.From), zap.Uint64("to", scan.To))
		return nil
	}

	ranges, err := SplitRangeDescending(scan.From, scan.To, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, heightRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch heights", zap.Uint64("from", heightRange.From), zap.Uint64("to", heightRange.To))

		records, err := r.scan(ctx, heightRange.Heights())
		if err != nil {
			return err
		}
		if err := r.write(ctx, records); err != nil {
			return err
		}
		if err := r.checkpoint.Save(from, key, heightRange.From); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("records", len(records)), zap.Uint64("from", heightRange.From), zap.Uint64("to", heightRange.To))
	}
	return nil
}

// scan fetches each height in order. Heights failing on every source are logged and skipped.
func (r *Runner) scan(ctx context.Context, heights []uint64) ([]model.RawRecord, error) {
	var out []model.RawRecord
	for _, height := range heights {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, src, err := r.fetchHeight(ctx, height)
		r.stats.Heights++
		if r.recorder != nil {
			r.recorder.RecordHeightScanned()
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.stats.Failed = append(r.stats.Failed, height)
			r.logger.Error("fetch height failed", zap.Uint64("height", height), zap.Error(err))
		} else {
			prepared, err := r.prepare(ctx, src, records, true)
			if err != nil {
				return nil, err
			}
			out = append(out, prepared...)
		}

		if err := r.pace(ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Runner) fetchHeight(ctx context.Context, height uint64) ([]model.RawRecord, Source, error) {
	var lastErr error
	for _, src := range r.sources() {
		var records []model.RawRecord
		err := r.withRetry(ctx, src, func(ctx context.Context) error {
			var err error
			records, err = src.TxsAtHeight(ctx, height)
			return err
		})
		if err == nil {
			return records, src, nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// prepare applies the contract filter, drops hashes already seen this run and fills
// missing timestamps from the source that produced the records.
func (r *Runner) prepare(ctx context.Context, src Source, records []model.RawRecord, filter bool) ([]model.RawRecord, error) {
	out := make([]model.RawRecord, 0, len(records))
	for _, rec := range records {
		if filter && !mentions(rec, r.cfg.Contract) {
			continue
		}
		if r.isDuplicate(rec) {
			continue
		}
		if rec.Timestamp == "" {
			if ts, ok := src.(Timestamper); ok {
				var value string
				err := r.withRetry(ctx, src, func(ctx context.Context) error {
					var err error
					value, err = ts.BlockTimestamp(ctx, rec.Height)
					return err
				})
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					r.logger.Warn("block timestamp fetch failed", zap.Uint64("height", rec.Height), zap.Error(err))
				}
				rec.Timestamp = value
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Runner) write(ctx context.Context, records []model.RawRecord) error {
	if err := r.sink.PutRawBatch(ctx, records); err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	r.stats.Records += len(records)
	return nil
}

func (r *Runner) latestHeight(ctx context.Context) (uint64, error) {
	for _, src := range r.sources() {
		lh, ok := src.(LatestHeighter)
		if !ok {
			continue
		}
		var height uint64
		err := r.withRetry(ctx, src, func(ctx context.Context) error {
			var err error
			height, err = lh.LatestHeight(ctx)
			return err
		})
		if err == nil {
			return height, nil
		}
		r.logger.Warn("latest height failed", zap.String("source", src.Name()), zap.Error(err))
	}
	return 0, fmt.Errorf("get latest height: no source available")
}

func (r *Runner) withRetry(ctx context.Context, src Source, fn func(context.Context) error) error {
	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		start := time.Now()
		err := fn(ctx)
		if r.recorder != nil {
			r.recorder.RecordFetch(src.Name(), time.Since(start), err)
		}
		if err != nil {
			r.logger.Warn("request failed", zap.String("source", src.Name()), zap.Error(err))
		}
		return err
	})
}

func (r *Runner) pace(ctx context.Context) error {
	if r.cfg.PaceEvery <= 0 || r.cfg.PaceDelay <= 0 || r.stats.Heights%r.cfg.PaceEvery != 0 {
		return nil
	}
	return r.sleep(ctx, r.cfg.PaceDelay)
}

func (r *Runner) isDuplicate(rec model.RawRecord) bool {
	if rec.Hash == "" {
		return false
	}
	id := strings.ToUpper(rec.Hash)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
