package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolCore/internal/model"
	"poolCore/internal/storage"
)

// RunConfig holds runtime settings for the snapshot watcher.
type RunConfig struct {
	PoolAddress       common.Address
	Asset             model.AssetID
	PoolNFT           model.AssetID
	PollInterval      time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// StateFetcher reads the watched pool's current record. chain.Client is the
// production implementation.
type StateFetcher interface {
	FetchPoolState(ctx context.Context, poolAddress common.Address, asset, poolNFT model.AssetID) (model.PoolState, error)
}

// Runner polls the pool mirror for new state versions and appends snapshots
// to storage. Every accepted on-ledger transition shows up as a version
// bump; already-seen versions are skipped so the sink sees each state once.
type Runner struct {
	cfg        RunConfig
	fetcher    StateFetcher
	sink       storage.SnapshotSink
	logger     *zap.Logger
	checkpoint *CheckpointStore
	lastSeen   uint64
	seen       bool
	restored   bool
	source     string
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, fetcher StateFetcher, sink storage.SnapshotSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		fetcher:    fetcher,
		sink:       sink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		source:     cfg.PoolAddress.Hex(),
	}
}

// Run executes the polling loop until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if err := r.pollOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := r.pollOnce(ctx); err != nil {
			return err
		}
	}
}

// PollOnce fetches the current state and persists it if the version moved.
// The watch command's --once flag runs exactly this.
func (r *Runner) PollOnce(ctx context.Context) error {
	return r.pollOnce(ctx)
}

// restore loads the checkpoint on the first poll. A checkpoint written for a
// different pool is ignored rather than trusted.
func (r *Runner) restore() error {
	if r.restored {
		return nil
	}
	r.restored = true

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if cp.Source != "" && cp.Source != r.source {
		r.logger.Warn("checkpoint belongs to a different pool, ignoring",
			zap.String("checkpoint_source", cp.Source),
			zap.String("source", r.source))
		return nil
	}

	r.lastSeen = cp.LastSeenVersion
	r.seen = true
	r.logger.Info("resume from checkpoint", zap.Uint64("last_seen_version", cp.LastSeenVersion))
	return nil
}

func (r *Runner) pollOnce(ctx context.Context) error {
	if r.fetcher == nil {
		return fmt.Errorf("state fetcher is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("snapshot sink is nil")
	}
	if err := r.restore(); err != nil {
		return err
	}

	state, err := r.fetchStateWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("fetch pool state: %w", err)
	}

	if r.seen && state.Version <= r.lastSeen {
		r.logger.Debug("version unchanged", zap.Uint64("version", state.Version))
		return nil
	}

	record := model.SnapshotRecord{
		State:      state,
		Source:     r.source,
		ObservedAt: time.Now().UTC(),
	}
	if err := r.sink.PutSnapshots(ctx, []model.SnapshotRecord{record}); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	r.lastSeen = state.Version
	r.seen = true
	if err := r.checkpoint.Save(r.source, state.Version); err != nil {
		return err
	}

	r.logger.Info("snapshot stored",
		zap.Uint64("version", state.Version),
		zap.String("reserve_a", state.ReserveA.Dec()),
		zap.String("reserve_b", state.ReserveB.Dec()),
		zap.String("lp_supply", state.LPSupply.Dec()))
	return nil
}

func (r *Runner) fetchStateWithRetry(ctx context.Context) (model.PoolState, error) {
	var state model.PoolState
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		state, err = r.fetcher.FetchPoolState(ctx, r.cfg.PoolAddress, r.cfg.Asset, r.cfg.PoolNFT)
		if err != nil {
			r.logger.Warn("fetch pool state failed", zap.Error(err))
		}
		return err
	})
	return state, err
}
