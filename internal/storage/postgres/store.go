package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolCore/internal/model"
	"poolCore/internal/storage"
)

// Store provides Postgres persistence for pool snapshots and quote receipts.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.SnapshotSink = (*Store)(nil)

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

// PutSnapshots inserts or updates observed pool states, keyed by source and
// version. Re-observations of the same version are idempotent.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.SnapshotRecord) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				source, version, reserve_a, reserve_b, lp_supply, fee_bps,
				asset_policy, asset_name, nft_policy, nft_name, observed_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
			ON CONFLICT (source, version)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				lp_supply = EXCLUDED.lp_supply,
				fee_bps = EXCLUDED.fee_bps,
				observed_at = EXCLUDED.observed_at
		`,
			snap.Source,
			int64(snap.State.Version),
			snap.State.ReserveA.Dec(),
			snap.State.ReserveB.Dec(),
			snap.State.LPSupply.Dec(),
			int32(snap.State.FeeBps),
			snap.State.Asset.PolicyID,
			snap.State.Asset.Name,
			snap.State.PoolNFT.PolicyID,
			snap.State.PoolNFT.Name,
			snap.ObservedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutQuoteReceipts appends served-quote records for audit.
func (s *Store) PutQuoteReceipts(ctx context.Context, receipts []model.QuoteReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, receipt := range receipts {
		batch.Queue(`
			INSERT INTO quote_receipts (
				pool_version, op_kind, amount_out, lp_minted, amount_a_out, amount_b_out, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			int64(receipt.PoolVersion),
			receipt.OpKind,
			nullable(receipt.AmountOut),
			nullable(receipt.LPMinted),
			nullable(receipt.AmountAOut),
			nullable(receipt.AmountBOut),
			receipt.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range receipts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
