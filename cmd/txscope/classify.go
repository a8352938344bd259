package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txScope/internal/classify"
	"txScope/internal/config"
	"txScope/internal/extract"
	"txScope/internal/ledger"
	"txScope/internal/metrics"
	"txScope/internal/model"
	"txScope/internal/normalize"
	"txScope/internal/storage"
	"txScope/internal/storage/nats"
	"txScope/internal/storage/postgres"
)

func runClassify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadClassify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	m.Serve(ctx, cfg.MetricsAddr, logger)

	sink, jsonlOut, closeSinks, err := openSinks(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	domain := cfg.Domain
	normalizer := normalize.NewNormalizer(
		normalize.Config{Workers: cfg.Workers},
		classify.New(domain.Contracts, domain.Memos),
		extract.New(domain.Contracts, domain.Formatter(), domain.HRP),
		m,
		logger,
	)

	logger.Info("classify start",
		zap.String("in", cfg.In),
		zap.String("sink", cfg.Sink),
		zap.String("errors", cfg.Errors),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("workers", cfg.Workers),
	)

	var (
		summary           normalize.Summary
		total, duplicates int
		batch             = make([]model.Transaction, 0, cfg.BatchSize)
		seen              = make(map[string]struct{})
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		items, err := normalizer.ProcessBatch(ctx, batch)
		if err != nil {
			return err
		}
		records := make([]model.TransactionRecord, 0, len(items))
		for _, item := range items {
			records = append(records, model.ToRecord(item))
		}
		if err := sink.PutBatch(ctx, records); err != nil {
			return fmt.Errorf("store records: %w", err)
		}
		summary.Add(normalize.Summarize(items))
		logger.Info("batch complete", zap.Int("transactions", len(records)))
		batch = batch[:0]
		return nil
	}

	errLog := &errorLog{writer: errWriter, logger: logger}

	err = storage.ScanLines(cfg.In, func(line []byte, number int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		rec, err := parseRawLine(line)
		if err != nil {
			m.RecordDecodeError("jsonl")
			errLog.Record(model.ClassifyError{Line: number, Error: err.Error()})
			return nil
		}
		tx, err := ledger.DecodeRecord(rec)
		if err != nil {
			m.RecordDecodeError(rec.Source)
			errLog.Record(model.ClassifyError{
				TxHash: rec.Hash,
				Height: rec.Height,
				Source: rec.Source,
				Line:   number,
				Error:  err.Error(),
			})
			return nil
		}

		key := strings.ToUpper(tx.Hash)
		if key != "" {
			if _, ok := seen[key]; ok {
				duplicates++
				return nil
			}
			seen[key] = struct{}{}
		}

		batch = append(batch, tx)
		if len(batch) >= cfg.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	// Batches are sorted individually; reorder the whole file once at the end.
	if jsonlOut != nil {
		if err := jsonlOut.SortByHeight(); err != nil {
			return fmt.Errorf("sort output: %w", err)
		}
	}

	logger.Info("classify complete",
		zap.Int("lines", total),
		zap.Int("classified", summary.Total),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", errLog.failed),
		zap.Int("unwritten_errors", errLog.lost),
	)
	summary.Log(logger)
	return nil
}

// parseRawLine accepts a RawRecord line or a bare ledger payload.
func parseRawLine(line []byte) (model.RawRecord, error) {
	var head struct {
		Source  string          `json:"source"`
		Hash    string          `json:"hash"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return model.RawRecord{}, err
	}
	if head.Source == "" && len(head.Payload) == 0 {
		return model.RawRecord{Payload: append(json.RawMessage(nil), line...)}, nil
	}

	payload := bytes.TrimSpace(head.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return model.RawRecord{}, fmt.Errorf("record %s has no payload", head.Hash)
	}
	var rec model.RawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.RawRecord{}, err
	}
	return rec, nil
}

type timedSink struct {
	name    string
	sink    storage.Sink
	metrics *metrics.Metrics
}

func (t timedSink) PutBatch(ctx context.Context, records []model.TransactionRecord) error {
	start := time.Now()
	if err := t.sink.PutBatch(ctx, records); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	t.metrics.RecordWrite(t.name, len(records), time.Since(start))
	return nil
}

// openSinks builds every sink named in cfg.Sink. The JSONL sink, when named, is
// also returned on its own. The returned func closes them.
func openSinks(ctx context.Context, cfg config.ClassifyConfig, m *metrics.Metrics, logger *zap.Logger) (storage.Sink, *storage.JsonlStorage, func(), error) {
	var sinks storage.MultiSink
	var jsonlOut *storage.JsonlStorage
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, name := range strings.Split(cfg.Sink, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
			continue
		case "jsonl":
			if cfg.Out == "" {
				closeAll()
				return nil, nil, nil, fmt.Errorf("output path is required")
			}
			truncate, err := newJSONLWriter(cfg.Out, false)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			if err := truncate.Close(); err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			jsonlOut = storage.NewJsonlStorage(cfg.Out)
			sinks = append(sinks, timedSink{name: name, sink: jsonlOut, metrics: m})
		case "postgres":
			store, err := postgres.NewStore(ctx, cfg.PGDSN)
			if err != nil {
				closeAll()
				return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
			}
			closers = append(closers, store.Close)
			if err := store.EnsureSchema(ctx); err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			logger.Info("postgres sink ready", zap.String("dsn", redactDSN(cfg.PGDSN)))
			sinks = append(sinks, timedSink{name: name, sink: store, metrics: m})
		case "nats":
			pub, err := nats.NewPublisher(ctx, cfg.NATSURL, cfg.NATSSubject, logger)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			closers = append(closers, func() {
				if err := pub.Close(); err != nil {
					logger.Warn("close nats publisher", zap.Error(err))
				}
			})
			sinks = append(sinks, timedSink{name: name, sink: pub, metrics: m})
		default:
			closeAll()
			return nil, nil, nil, fmt.Errorf("unknown sink %q (want jsonl, postgres or nats)", name)
		}
	}
	if len(sinks) == 0 {
		return nil, nil, nil, fmt.Errorf("at least one sink is required")
	}
	return sinks, jsonlOut, closeAll, nil
}

type recordWriter interface {
	Write(value interface{}) error
}

// errorLog writes undecodable lines to the errors file and counts them.
// Rows that cannot be written are logged and counted as lost.
type errorLog struct {
	writer recordWriter
	logger *zap.Logger
	failed int
	lost   int
}

func (e *errorLog) Record(rec model.ClassifyError) {
	e.failed++
	if err := e.writer.Write(rec); err != nil {
		e.lost++
		e.logger.Warn("write classify error",
			zap.Int("line", rec.Line),
			zap.String("tx_hash", rec.TxHash),
			zap.Error(err),
		)
	}
}
