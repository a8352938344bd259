package storage

import (
	"context"

	"txScope/internal/model"
)

// RawSink receives fetched ledger payloads.
type RawSink interface {
	PutRawBatch(ctx context.Context, records []model.RawRecord) error
}

// Sink receives persisted transaction records.
type Sink interface {
	PutBatch(ctx context.Context, records []model.TransactionRecord) error
}

// MultiSink fans a batch out to several sinks in order, stopping at the first error.
type MultiSink []Sink

func (m MultiSink) PutBatch(ctx context.Context, records []model.TransactionRecord) error {
	for _, sink := range m {
		if err := sink.PutBatch(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
