package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolCore/internal/chain"
	"poolCore/internal/config"
	"poolCore/internal/model"
	"poolCore/internal/storage"
	"poolCore/internal/storage/postgres"
	"poolCore/internal/watch"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product pool engine tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the pool mirror and store state snapshots",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "mirror chain RPC URL")
	watchCmd.Flags().String("pool", "", "pool mirror contract address")
	watchCmd.Flags().String("asset-policy", "", "paired asset policy id (hex)")
	watchCmd.Flags().String("asset-name", "", "paired asset name (hex)")
	watchCmd.Flags().String("nft-policy", "", "pool nft policy id (hex)")
	watchCmd.Flags().String("nft-name", "", "pool nft name (hex)")
	watchCmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path")
	watchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	watchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	watchCmd.Flags().Duration("poll-interval", 10*time.Second, "state poll interval")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to mirror snapshots into")
	watchCmd.Flags().Bool("once", false, "poll a single time and exit")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Build a transition candidate from the latest snapshot",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("in", "./data/snapshots.jsonl", "snapshots JSONL path")
	quoteCmd.Flags().String("op", "", "operation JSON file")
	quoteCmd.Flags().String("rpc", "", "mirror chain RPC URL for deriving ledger time")
	quoteCmd.Flags().Uint64("current-time", 0, "ledger time for guard checks (0 derives it from the chain tip, or wall clock without --rpc)")
	quoteCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for quote receipts")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Replay a proposed transition through the validator",
		RunE:  runValidate,
	}

	validateCmd.Flags().String("old", "", "prior pool state JSON file")
	validateCmd.Flags().String("proposed", "", "proposed pool state JSON file")
	validateCmd.Flags().String("op", "", "operation JSON file")
	validateCmd.Flags().Uint64("current-time", 0, "ledger time for guard checks")
	validateCmd.Flags().Uint64("pool-output-size", 0, "encoded size of the pool output (0 means measure the proposed state)")
	validateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(validateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.PoolAddress) {
		return fmt.Errorf("pool address %q is not a valid hex address", cfg.PoolAddress)
	}
	if cfg.AssetPolicy == "" || cfg.PoolNFTPolicy == "" {
		return fmt.Errorf("asset and pool nft identities are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	logger.Info("connected", zap.String("chain_id", chainID.String()))

	var sink storage.SnapshotSink = storage.NewJsonlStorage(cfg.Out)
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		sink = storage.MultiSink{sink, pgStore}
	}

	runner := watch.NewRunner(watch.RunConfig{
		PoolAddress:       common.HexToAddress(cfg.PoolAddress),
		Asset:             model.AssetID{PolicyID: cfg.AssetPolicy, Name: cfg.AssetName},
		PoolNFT:           model.AssetID{PolicyID: cfg.PoolNFTPolicy, Name: cfg.PoolNFTName},
		PollInterval:      cfg.PollInterval,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, sink, logger)

	once, _ := cmd.Flags().GetBool("once")
	if once {
		return runner.PollOnce(ctx)
	}

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
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
