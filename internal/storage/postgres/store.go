package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"txScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS nft_transactions (
	tx_hash      TEXT PRIMARY KEY,
	block_height BIGINT NOT NULL,
	block_time   TIMESTAMPTZ,
	event_type   TEXT NOT NULL,
	record       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS nft_transactions_height_idx ON nft_transactions (block_height DESC);
CREATE INDEX IF NOT EXISTS nft_transactions_event_type_idx ON nft_transactions (event_type);
CREATE TABLE IF NOT EXISTS txscope_state (
	name        TEXT PRIMARY KEY,
	last_height BIGINT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store provides Postgres persistence for transaction records and export state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutBatch upserts records by transaction hash.
func (s *Store) PutBatch(ctx context.Context, records []model.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.TxHash, err)
		}
		batch.Queue(`
			INSERT INTO nft_transactions (tx_hash, block_height, block_time, event_type, record, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (tx_hash)
			DO UPDATE SET
				block_height = EXCLUDED.block_height,
				block_time = EXCLUDED.block_time,
				event_type = EXCLUDED.event_type,
				record = EXCLUDED.record,
				updated_at = now()
		`,
			rec.TxHash,
			int64(rec.BlockHeight),
			blockTime(rec.Timestamp),
			string(rec.EventType),
			doc,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Records returns stored records above minHeight, highest first.
func (s *Store) Records(ctx context.Context, minHeight uint64) ([]model.TransactionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM nft_transactions WHERE block_height > $1 ORDER BY block_height DESC, tx_hash`,
		int64(minHeight))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TransactionRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec model.TransactionRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode stored record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadState returns last_height for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var height int64
	row := s.pool.QueryRow(ctx, `SELECT last_height FROM txscope_state WHERE name=$1`, name)
	if err := row.Scan(&height); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(height), true, nil
}

// SaveState upserts last_height for a name.
func (s *Store) SaveState(ctx context.Context, name string, height uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO txscope_state (name, last_height, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_height = EXCLUDED.last_height, updated_at = now()
	`, name, int64(height))
	return err
}

// blockTime parses an ISO8601 timestamp; unparseable values are stored as NULL.
func blockTime(ts string) *time.Time {
	if ts == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}
