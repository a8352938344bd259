package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"txScope/internal/model"
)

// Config controls month export behavior.
type Config struct {
	OutDir     string
	Merge      bool
	OnlyNew    bool
	DataSource string
}

// File describes one written month document.
type File struct {
	Path       string
	Month      string
	Year       int
	Count      int
	Added      int
	IsComplete bool
	Merged     bool
}

// Exporter groups records into monthly documents.
type Exporter struct {
	cfg    Config
	state  StateStore
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter builds an Exporter. state may be nil when only-new is not used.
func NewExporter(cfg Config, state StateStore, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{cfg: cfg, state: state, logger: logger, now: time.Now}
}

// Export writes one document per month. The oldest month is never written because its
// first days may be missing; the newest goes to current-partial.json as incomplete.
func (e *Exporter) Export(ctx context.Context, records []model.TransactionRecord) ([]File, error) {
	if e.cfg.OutDir == "" {
		return nil, fmt.Errorf("out dir is required")
	}

	groups, undated := group(records)
	if undated > 0 {
		e.logger.Warn("records without timestamp skipped", zap.Int("count", undated))
	}
	if len(groups) == 0 {
		e.logger.Info("nothing to export")
		return nil, nil
	}

	keys := make([]monthKey, 0, len(groups))
	var maxHeight uint64
	for key, recs := range groups {
		keys = append(keys, key)
		for _, rec := range recs {
			if rec.BlockHeight > maxHeight {
				maxHeight = rec.BlockHeight
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	oldest, newest := keys[0], keys[len(keys)-1]

	var lastExported uint64
	var haveState bool
	if e.cfg.OnlyNew && e.state != nil {
		var err error
		lastExported, haveState, err = e.state.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load export state: %w", err)
		}
	}

	now := e.now()
	var files []File
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		if key == oldest {
			e.logger.Info("skip oldest month", zap.String("month", key.String()))
			continue
		}
		recs := groups[key]
		if haveState && !hasNewer(recs, lastExported) {
			e.logger.Debug("skip month without new records", zap.String("month", key.String()))
			continue
		}

		file, err := e.writeMonth(key, recs, key != newest, now)
		if err != nil {
			return files, err
		}
		files = append(files, file)
		e.logger.Info("month exported",
			zap.String("path", file.Path),
			zap.Int("transactions", file.Count),
			zap.Int("added", file.Added),
			zap.Bool("complete", file.IsComplete),
		)
	}

	if e.state != nil && len(files) > 0 {
		if err := e.state.Save(ctx, maxHeight); err != nil {
			return files, fmt.Errorf("save export state: %w", err)
		}
	}
	return files, nil
}

func (e *Exporter) writeMonth(key monthKey, recs []model.TransactionRecord, complete bool, now time.Time) (File, error) {
	name := key.fileName()
	if !complete {
		name = PartialFile
	}
	path := filepath.Join(e.cfg.OutDir, name)

	sortRecords(recs)
	doc := model.MonthDocument{
		Metadata:     buildMetadata(key, recs, complete, now, e.cfg.DataSource),
		Transactions: recs,
	}
	added := len(recs)
	merged := false

	if e.cfg.Merge {
		existing, ok, err := readDocument(path)
		if err != nil {
			return File{}, err
		}
		switch {
		case ok && sameMonth(key, existing.Metadata):
			doc, added = mergeDocument(key, existing, recs, complete, now, e.cfg.DataSource)
			merged = true
		case ok:
			e.logger.Info("replace document of another month",
				zap.String("path", path),
				zap.String("previous", fmt.Sprintf("%s %d", existing.Metadata.Month, existing.Metadata.Year)),
			)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return File{}, fmt.Errorf("write %s: %w", name, err)
	}

	return File{
		Path:       path,
		Month:      doc.Metadata.Month,
		Year:       doc.Metadata.Year,
		Count:      len(doc.Transactions),
		Added:      added,
		IsComplete: doc.Metadata.IsComplete,
		Merged:     merged,
	}, nil
}

// group buckets records by UTC month, keeping the first record seen for each hash.
func group(records []model.TransactionRecord) (map[monthKey][]model.TransactionRecord, int) {
	groups := make(map[monthKey][]model.TransactionRecord)
	seen := make(map[string]struct{}, len(records))
	undated := 0
	for _, rec := range records {
		if _, ok := seen[rec.TxHash]; ok {
			continue
		}
		seen[rec.TxHash] = struct{}{}
		ts, err := recordTime(rec)
		if err != nil {
			undated++
			continue
		}
		key := keyOf(ts)
		groups[key] = append(groups[key], rec)
	}
	return groups, undated
}

func hasNewer(records []model.TransactionRecord, height uint64) bool {
	for _, rec := range records {
		if rec.BlockHeight > height {
			return true
		}
	}
	return false
}

func readDocument(path string) (model.MonthDocument, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.MonthDocument{}, false, nil
		}
		return model.MonthDocument{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	var doc model.MonthDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.MonthDocument{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, true, nil
}
