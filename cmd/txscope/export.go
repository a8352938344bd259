package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txScope/internal/config"
	"txScope/internal/export"
	"txScope/internal/model"
	"txScope/internal/storage"
	"txScope/internal/storage/postgres"
)

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" && cfg.PGDSN == "" {
		return fmt.Errorf("input path or pg dsn is required")
	}
	if cfg.OutDir == "" {
		return fmt.Errorf("out dir is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		records    []model.TransactionRecord
		stateStore export.StateStore
	)
	if cfg.In != "" {
		records, err = storage.ReadRecords(cfg.In, func(number int, err error) {
			logger.Warn("skip unreadable record", zap.Int("line", number), zap.Error(err))
		})
		if err != nil {
			return fmt.Errorf("read records: %w", err)
		}
		stateStore = &export.FileStateStore{Path: cfg.StateFile}
	} else {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		records, err = store.Records(ctx, 0)
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}
		stateStore = &export.DBStateStore{Store: store, Name: cfg.StateName}
	}

	logger.Info("export start",
		zap.String("in", cfg.In),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("out_dir", cfg.OutDir),
		zap.Bool("merge", cfg.Merge),
		zap.Bool("only_new", cfg.OnlyNew),
		zap.Int("records", len(records)),
	)

	exporter := export.NewExporter(export.Config{
		OutDir:     cfg.OutDir,
		Merge:      cfg.Merge,
		OnlyNew:    cfg.OnlyNew,
		DataSource: cfg.DataSource,
	}, stateStore, logger)

	files, err := exporter.Export(ctx, records)
	if err != nil {
		return err
	}

	logger.Info("export complete", zap.Int("files", len(files)))
	return nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
