package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"txScope/internal/model"
)

// Version is written to every month document.
const Version = "2.0.0"

// PartialFile is the file name of the newest, still open month.
const PartialFile = "current-partial.json"

// monthKey identifies a calendar month in UTC.
type monthKey struct {
	Year  int
	Month time.Month
}

func (k monthKey) before(o monthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

func (k monthKey) String() string {
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// fileName returns "<month>-<year>.json", lowercase.
func (k monthKey) fileName() string {
	return fmt.Sprintf("%s-%d.json", strings.ToLower(k.Month.String()), k.Year)
}

func (k monthKey) lastDay() int {
	return time.Date(k.Year, k.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func recordTime(rec model.TransactionRecord) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func keyOf(ts time.Time) monthKey {
	return monthKey{Year: ts.Year(), Month: ts.Month()}
}

// sortRecords orders by block height descending; equal heights keep their order.
func sortRecords(records []model.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].BlockHeight > records[j].BlockHeight
	})
}

// buildMetadata computes the month metadata from its records. Records without a
// parseable timestamp are ignored for the date range.
func buildMetadata(key monthKey, records []model.TransactionRecord, complete bool, now time.Time, source string) model.MonthMetadata {
	meta := model.MonthMetadata{
		Version:           Version,
		GeneratedAt:       now.UTC().Format(time.RFC3339),
		Month:             key.Month.String(),
		MonthNumber:       int(key.Month),
		Year:              key.Year,
		IsComplete:        complete,
		TotalTransactions: len(records),
		EventTypes:        make(map[string]int),
		DataSource:        source,
	}

	var oldest, newest time.Time
	for i, rec := range records {
		meta.EventTypes[string(rec.EventType)]++
		if i == 0 || rec.BlockHeight < meta.BlockRange.Min {
			meta.BlockRange.Min = rec.BlockHeight
		}
		if rec.BlockHeight > meta.BlockRange.Max {
			meta.BlockRange.Max = rec.BlockHeight
		}
		ts, err := recordTime(rec)
		if err != nil {
			continue
		}
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
		if newest.IsZero() || ts.After(newest) {
			newest = ts
		}
	}
	if !oldest.IsZero() {
		meta.DateRange = model.DateRange{
			Oldest: oldest.Format(time.RFC3339),
			Newest: newest.Format(time.RFC3339),
		}
	}
	return meta
}

// spansMonth reports whether the records run from day 1 to the last day of key.
func spansMonth(key monthKey, meta model.MonthMetadata) bool {
	oldest, err1 := time.Parse(time.RFC3339, meta.DateRange.Oldest)
	newest, err2 := time.Parse(time.RFC3339, meta.DateRange.Newest)
	if err1 != nil || err2 != nil {
		return false
	}
	return oldest.UTC().Day() == 1 && newest.UTC().Day() == key.lastDay()
}

// mergeDocument adds incoming records missing from existing (by hash), re-sorts and
// recomputes the metadata. It returns the merged document and the number of records added.
func mergeDocument(key monthKey, existing model.MonthDocument, incoming []model.TransactionRecord, complete bool, now time.Time, source string) (model.MonthDocument, int) {
	seen := make(map[string]struct{}, len(existing.Transactions))
	merged := make([]model.TransactionRecord, 0, len(existing.Transactions)+len(incoming))
	for _, rec := range existing.Transactions {
		seen[rec.TxHash] = struct{}{}
		merged = append(merged, rec)
	}
	added := 0
	for _, rec := range incoming {
		if _, ok := seen[rec.TxHash]; ok {
			continue
		}
		seen[rec.TxHash] = struct{}{}
		merged = append(merged, rec)
		added++
	}
	sortRecords(merged)

	if source == "" {
		source = existing.Metadata.DataSource
	}
	meta := buildMetadata(key, merged, complete, now, source)
	meta.IsComplete = complete || spansMonth(key, meta)
	meta.LastUpdated = now.UTC().Format(time.RFC3339)
	return model.MonthDocument{Metadata: meta, Transactions: merged}, added
}

func sameMonth(key monthKey, meta model.MonthMetadata) bool {
	return meta.Year == key.Year && meta.MonthNumber == int(key.Month)
}
