package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolCore/internal/chain"
	"poolCore/internal/config"
	"poolCore/internal/model"
	"poolCore/internal/quote"
	"poolCore/internal/storage"
	"poolCore/internal/storage/postgres"
)

// quoteOutput is the JSON printed for a served quote.
type quoteOutput struct {
	PoolVersion uint64          `json:"pool_version"`
	OpKind      string          `json:"op_kind"`
	Proposed    model.PoolState `json:"proposed"`
	AmountOut   string          `json:"amount_out,omitempty"`
	LPMinted    string          `json:"lp_minted,omitempty"`
	AmountAOut  string          `json:"amount_a_out,omitempty"`
	AmountBOut  string          `json:"amount_b_out,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
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

	opPath, _ := cmd.Flags().GetString("op")
	if opPath == "" {
		return fmt.Errorf("operation file is required")
	}
	opData, err := os.ReadFile(opPath)
	if err != nil {
		return fmt.Errorf("read operation: %w", err)
	}
	op, err := model.DecodeOperation(opData)
	if err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}

	inPath, _ := cmd.Flags().GetString("in")
	snapshots := storage.NewJsonlStorage(inPath)
	latest, found, err := snapshots.LatestSnapshot()
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no snapshots in %s", inPath)
	}

	ctx := context.Background()

	currentTime, _ := cmd.Flags().GetUint64("current-time")
	if currentTime == 0 && cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		tip, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("query tip: %w", err)
		}
		currentTime, err = chainClient.BlockTimestamp(ctx, tip)
		if err != nil {
			return fmt.Errorf("query tip timestamp: %w", err)
		}
		logger.Info("ledger time from chain tip",
			zap.Uint64("block", tip),
			zap.Uint64("current_time", currentTime))
	}
	if currentTime == 0 {
		currentTime = uint64(time.Now().Unix())
	}

	builder := quote.NewBuilder(logger)

	var built quote.Quote
	switch o := op.(type) {
	case model.Swap:
		built, err = builder.Swap(latest.State, o, currentTime)
	case model.AddLiquidity:
		built, err = builder.AddLiquidity(latest.State, o, currentTime)
	case model.RemoveLiquidity:
		built, err = builder.RemoveLiquidity(latest.State, o, currentTime)
	default:
		return fmt.Errorf("unknown operation kind %v", op.Kind())
	}
	if err != nil {
		return err
	}

	// The snapshot file may have advanced while the quote was being built.
	refreshed, found, err := snapshots.LatestSnapshot()
	if err != nil {
		return err
	}
	if found {
		if err := builder.Revalidate(refreshed.State, built); err != nil {
			return err
		}
	}

	out := quoteOutput{
		PoolVersion: built.Prior.Version,
		OpKind:      built.Op.Kind().String(),
		Proposed:    built.Proposed,
	}
	if built.AmountOut != nil {
		out.AmountOut = built.AmountOut.Dec()
	}
	if built.LPMinted != nil {
		out.LPMinted = built.LPMinted.Dec()
	}
	if built.AmountAOut != nil {
		out.AmountAOut = built.AmountAOut.Dec()
	}
	if built.AmountBOut != nil {
		out.AmountBOut = built.AmountBOut.Dec()
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	fmt.Println(string(encoded))

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		receipt := built.Receipt()
		receipt.CreatedAt = time.Now().UTC()
		if err := store.PutQuoteReceipts(ctx, []model.QuoteReceipt{receipt}); err != nil {
			return fmt.Errorf("store receipt: %w", err)
		}
		logger.Info("quote receipt stored", zap.Uint64("pool_version", receipt.PoolVersion))
	}

	return nil
}
