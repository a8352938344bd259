package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "txscope",
		Short:        "Terra NFT transaction classifier",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch raw transactions by height, height range or hash",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("lcd", "https://terra-lcd.publicnode.com", "LCD REST URL")
	fetchCmd.Flags().String("rpc", "", "CometBFT RPC URL")
	fetchCmd.Flags().String("source", "lcd", "primary source (lcd, rpc); the other is the fallback when configured")
	fetchCmd.Flags().StringSlice("heights", nil, "block heights (comma-separated)")
	fetchCmd.Flags().String("heights-file", "", "file with comma or newline separated heights")
	fetchCmd.Flags().Uint64("from", 0, "lowest height of the range (inclusive)")
	fetchCmd.Flags().Uint64("to", 0, "highest height of the range (inclusive), 0 means latest")
	fetchCmd.Flags().String("hash", "", "fetch a single transaction by hash")
	fetchCmd.Flags().Uint64("batch-size", 100, "heights per batch")
	fetchCmd.Flags().String("out", "./data/raw_txs.jsonl", "output raw JSONL path")
	fetchCmd.Flags().String("checkpoint", "./data/fetch_checkpoint.json", "checkpoint file path")
	fetchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing for range scans")
	fetchCmd.Flags().Int("pace-every", 10, "pause after this many heights")
	fetchCmd.Flags().Duration("pace-delay", 100*time.Millisecond, "pause length")
	fetchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	fetchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fetchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(fetchCmd)

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify raw transactions and extract their fields",
		RunE:  runClassify,
	}

	classifyCmd.Flags().String("in", "", "input raw JSONL")
	classifyCmd.Flags().String("out", "./data/transactions.jsonl", "output records JSONL (jsonl sink)")
	classifyCmd.Flags().String("errors", "./data/classify_errors.jsonl", "undecodable payloads JSONL")
	classifyCmd.Flags().String("sink", "jsonl", "record sinks (jsonl, postgres, nats; comma-separated)")
	classifyCmd.Flags().String("pg-dsn", "", "Postgres DSN (postgres sink)")
	classifyCmd.Flags().String("nats-url", "", "NATS server URL (nats sink)")
	classifyCmd.Flags().String("nats-subject", "txscope.tx", "NATS subject prefix")
	classifyCmd.Flags().Int("batch-size", 500, "transactions per batch")
	classifyCmd.Flags().Int("workers", 0, "normalization workers (0 means one per CPU)")
	classifyCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(classifyCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export classified records as monthly JSON documents",
		RunE:  runExport,
	}

	exportCmd.Flags().String("in", "", "input records JSONL (defaults to Postgres when --pg-dsn is set)")
	exportCmd.Flags().String("out-dir", "./data/months", "output directory")
	exportCmd.Flags().Bool("merge", true, "merge into existing month documents")
	exportCmd.Flags().Bool("only-new", false, "only write months with records above the saved state")
	exportCmd.Flags().String("state-file", "./data/export_state.json", "local export state file")
	exportCmd.Flags().String("pg-dsn", "", "Postgres DSN for records and state")

	root.AddCommand(exportCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print classified records as a table",
		RunE:  runShow,
	}

	showCmd.Flags().String("in", "", "input records JSONL")
	showCmd.Flags().String("address-book", "", "address book JSON for names")
	showCmd.Flags().String("jq", "", "jq filter; boolean results select rows, other results are printed")
	showCmd.Flags().Int("limit", 50, "maximum rows (0 means all)")

	root.AddCommand(showCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
