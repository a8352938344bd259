// Package normalize turns canonical transactions into classified, field-extracted
// records and runs that conversion over batches.
package normalize

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"txScope/internal/classify"
	"txScope/internal/extract"
	"txScope/internal/model"
)

// Recorder receives per-transaction observations. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordClassified(eventType string)
	RecordExtractFailure(field string)
}

// Config holds normalizer settings.
type Config struct {
	Workers int
}

// Normalizer classifies once per transaction and maps extracted fields onto
// the counterparty and display slots for the tag's family.
type Normalizer struct {
	cfg        Config
	classifier *classify.Classifier
	extractor  *extract.Extractor
	recorder   Recorder
	logger     *zap.Logger
}

// NewNormalizer wires the classifier and extractor. recorder may be nil.
func NewNormalizer(cfg Config, classifier *classify.Classifier, extractor *extract.Extractor, recorder Recorder, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	n := &Normalizer{
		cfg:        cfg,
		classifier: classifier,
		extractor:  extractor,
		recorder:   recorder,
		logger:     logger,
	}
	extractor.OnFailure(func(field string, recovered interface{}) {
		logger.Debug("extract failed", zap.String("field", field), zap.Any("panic", recovered))
		if recorder != nil {
			recorder.RecordExtractFailure(field)
		}
	})
	return n
}

// Normalize never fails: unrecognized input yields UNKNOWN_EVENT and absent fields.
func (n *Normalizer) Normalize(tx model.Transaction) model.NormalizedTransaction {
	tag, rule := n.classifier.Explain(tx)
	if n.recorder != nil {
		n.recorder.RecordClassified(string(tag))
	}
	if tag == model.TagErrorClassifying {
		n.logger.Debug("classification recovered", zap.String("tx_hash", tx.Hash))
	}

	e := n.extractor
	sender := e.Sender(tx)
	recipient := e.Recipient(tx)
	price := e.Price(tx, tag)
	rewards := e.Rewards(tx)

	out := model.NormalizedTransaction{
		Hash:      tx.Hash,
		Height:    tx.Height,
		Timestamp: tx.Timestamp,
		EventTag:  tag,
		TokenIDs:  e.TokenIDs(tx),
		Price:     price,
		Rewards:   rewards,
		Fees:      e.Fees(tx),
	}
	if out.TokenIDs == nil {
		out.TokenIDs = []string{}
	}

	switch {
	case tag.IsClaim() && rewards != nil && rewards.Kind == model.RewardKindDetailed:
		claimant := rewards.Recipient
		if claimant == "" {
			claimant = recipient
		}
		if claimant == "" {
			claimant = sender
		}
		out.CounterpartyA = strPtr(claimant)
		out.CounterpartyB = strPtr(claimant)
		out.DisplayAmount = &model.Amount{Formatted: rewards.Formatted}

	case tag.IsOTCCreate():
		out.CounterpartyB = strPtr(sender)
		out.DisplayAmount = firstAmount(e.OTCAmount(tx, tag), price)

	case tag.IsOTCComplete():
		out.CounterpartyA = strPtr(sender)
		out.DisplayAmount = firstAmount(e.OTCAmount(tx, tag), price)

	case tag.IsStake():
		out.CounterpartyA = strPtr(sender)

	case tag.IsSale():
		out.CounterpartyA = strPtr(sender)
		seller := e.Seller(tx)
		if seller == "" {
			seller = recipient
		}
		out.CounterpartyB = optional(seller)
		out.DisplayAmount = price

	case tag.IsListing():
		out.CounterpartyB = strPtr(sender)
		out.DisplayAmount = price

	default:
		out.CounterpartyA = strPtr(sender)
		out.CounterpartyB = optional(recipient)
		if rewards != nil {
			out.DisplayAmount = &model.Amount{Formatted: rewards.Formatted}
		} else {
			out.DisplayAmount = price
		}
	}

	n.logger.Debug("normalized",
		zap.String("tx_hash", tx.Hash),
		zap.String("event_type", string(tag)),
		zap.String("rule", rule),
	)
	return out
}

// ProcessBatch normalizes txs concurrently and returns them sorted by height
// descending. Equal heights keep their input order. Duplicates are not removed.
func (n *Normalizer) ProcessBatch(ctx context.Context, txs []model.Transaction) ([]model.NormalizedTransaction, error) {
	out := make([]model.NormalizedTransaction, len(txs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Workers)
	for i := range txs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = n.Normalize(txs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Height > out[b].Height })
	return out, nil
}

func firstAmount(candidates ...*model.Amount) *model.Amount {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
