package model

import "time"

// SnapshotRecord is one observation of a pool state by the off-chain
// watcher, with provenance for traceability.
type SnapshotRecord struct {
	State      PoolState `json:"state"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// QuoteReceipt records a quote served to a caller, keyed by the pool version
// it was computed against. Amounts are decimal strings.
type QuoteReceipt struct {
	PoolVersion uint64    `json:"pool_version"`
	OpKind      string    `json:"op_kind"`
	AmountOut   string    `json:"amount_out,omitempty"`
	LPMinted    string    `json:"lp_minted,omitempty"`
	AmountAOut  string    `json:"amount_a_out,omitempty"`
	AmountBOut  string    `json:"amount_b_out,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
