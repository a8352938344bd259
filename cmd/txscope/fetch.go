package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txScope/internal/chain"
	"txScope/internal/config"
	"txScope/internal/indexer"
	"txScope/internal/metrics"
	"txScope/internal/model"
	"txScope/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	rawHeights, err := indexer.ReadHeightsFile(cfg.HeightsFile)
	if err != nil {
		return err
	}
	heights, skipped := indexer.ParseHeights(append(cfg.Heights, rawHeights...))
	if len(skipped) > 0 {
		logger.Warn("invalid heights skipped", zap.Strings("values", skipped))
	}
	if cfg.Hash == "" && len(heights) == 0 && cfg.FromHeight == 0 {
		return fmt.Errorf("one of --hash, --heights, --heights-file or --from is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	m.Serve(ctx, cfg.MetricsAddr, logger)

	var lcd *chain.LCDClient
	if cfg.LCDURL != "" {
		lcd = chain.NewLCDClient(cfg.LCDURL, 0)
	}
	var rpc *chain.RPCClient
	if cfg.RPCURL != "" {
		rpc, err = chain.NewRPCClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer rpc.Close()
	}

	var primary, fallback indexer.Source
	switch cfg.Source {
	case model.SourceLCD:
		if lcd == nil {
			return fmt.Errorf("lcd url is required")
		}
		primary = lcd
		if rpc != nil {
			fallback = rpc
		}
	case model.SourceRPC:
		if rpc == nil {
			return fmt.Errorf("rpc url is required")
		}
		primary = rpc
		if lcd != nil {
			fallback = lcd
		}
	default:
		return fmt.Errorf("unknown source %q (want lcd or rpc)", cfg.Source)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Heights:           heights,
		FromHeight:        cfg.FromHeight,
		ToHeight:          cfg.ToHeight,
		Hash:              cfg.Hash,
		Contract:          cfg.Domain.Contracts.NFT,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		PaceEvery:         cfg.PaceEvery,
		PaceDelay:         cfg.PaceDelay,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, primary, fallback, storage.NewJsonlStorage(cfg.Out), m, logger)

	logger.Info("fetch start",
		zap.String("source", cfg.Source),
		zap.String("lcd", cfg.LCDURL),
		zap.String("rpc", cfg.RPCURL),
		zap.String("hash", cfg.Hash),
		zap.Int("heights", len(heights)),
		zap.Uint64("from", cfg.FromHeight),
		zap.Uint64("to", cfg.ToHeight),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("contract", cfg.Domain.Contracts.NFT),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}
