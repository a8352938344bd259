package normalize

import (
	"sort"

	"go.uber.org/zap"

	"txScope/internal/model"
)

// Summary counts a batch by event tag.
type Summary struct {
	Total   int
	ByTag   map[model.EventTag]int
	Unknown int
	Errors  int
}

func Summarize(items []model.NormalizedTransaction) Summary {
	s := Summary{Total: len(items), ByTag: make(map[model.EventTag]int)}
	for _, item := range items {
		s.ByTag[item.EventTag]++
		switch item.EventTag {
		case model.TagUnknown:
			s.Unknown++
		case model.TagErrorClassifying:
			s.Errors++
		}
	}
	return s
}

// Add folds another summary into s.
func (s *Summary) Add(o Summary) {
	if s.ByTag == nil {
		s.ByTag = make(map[model.EventTag]int)
	}
	s.Total += o.Total
	s.Unknown += o.Unknown
	s.Errors += o.Errors
	for tag, n := range o.ByTag {
		s.ByTag[tag] += n
	}
}

// Unclassified is the operator signal: transactions no rule recognized.
func (s Summary) Unclassified() int { return s.Unknown + s.Errors }

// Log writes the summary, warning when unclassified traffic is present.
func (s Summary) Log(logger *zap.Logger) {
	tags := make([]string, 0, len(s.ByTag))
	for tag := range s.ByTag {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	fields := make([]zap.Field, 0, len(tags)+3)
	fields = append(fields, zap.Int("total", s.Total), zap.Int("unknown", s.Unknown), zap.Int("errors", s.Errors))
	for _, tag := range tags {
		fields = append(fields, zap.Int(tag, s.ByTag[model.EventTag(tag)]))
	}

	if s.Unclassified() > 0 {
		logger.Warn("classify summary: unclassified transactions", fields...)
		return
	}
	logger.Info("classify summary", fields...)
}

// Dedup merges incoming into existing by hash. Existing entries win and
// first-seen order is kept.
func Dedup(existing, incoming []model.NormalizedTransaction) []model.NormalizedTransaction {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]model.NormalizedTransaction, 0, len(existing)+len(incoming))
	for _, batch := range [][]model.NormalizedTransaction{existing, incoming} {
		for _, item := range batch {
			if _, ok := seen[item.Hash]; ok {
				continue
			}
			seen[item.Hash] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
