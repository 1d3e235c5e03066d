package model

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// AssetID identifies an asset on the hosting ledger by minting policy and
// on-chain name. Both parts are hex-encoded and opaque to the engine.
type AssetID struct {
	PolicyID string `json:"policy_id"`
	Name     string `json:"asset_name"`
}

// String renders the identifier in policy.name form.
func (a AssetID) String() string {
	return a.PolicyID + "." + a.Name
}

// PoolState is one version of a pool's on-ledger record. Version increments
// by exactly one per accepted transition; the hosting ledger guarantees a
// given version is consumed at most once.
type PoolState struct {
	Version  uint64
	ReserveA *uint256.Int
	ReserveB *uint256.Int
	LPSupply *uint256.Int
	FeeBps   uint16
	Asset    AssetID
	PoolNFT  AssetID
}

// MaxFeeBps caps the trading fee at 10%.
const MaxFeeBps = 1000

// Initialized reports whether the pool has received its bootstrap deposit.
func (p PoolState) Initialized() bool {
	return p.LPSupply != nil && !p.LPSupply.IsZero()
}

// Validate checks the structural invariants that every stored state must
// satisfy, independent of any transition.
func (p PoolState) Validate() error {
	if p.ReserveA == nil || p.ReserveB == nil || p.LPSupply == nil {
		return fmt.Errorf("pool state has nil amounts")
	}
	if p.FeeBps > MaxFeeBps {
		return fmt.Errorf("fee %d bps exceeds maximum %d", p.FeeBps, MaxFeeBps)
	}
	if p.Asset.PolicyID == "" || p.PoolNFT.PolicyID == "" {
		return fmt.Errorf("asset identity is empty")
	}
	if p.Initialized() && (p.ReserveA.IsZero() || p.ReserveB.IsZero()) {
		return fmt.Errorf("initialized pool has an empty reserve side")
	}
	return nil
}

// Clone returns a deep copy; the amount fields are freshly allocated.
func (p PoolState) Clone() PoolState {
	out := p
	out.ReserveA = new(uint256.Int).Set(p.ReserveA)
	out.ReserveB = new(uint256.Int).Set(p.ReserveB)
	out.LPSupply = new(uint256.Int).Set(p.LPSupply)
	return out
}

// Equal reports exact equality of every field, amounts included.
func (p PoolState) Equal(other PoolState) bool {
	return p.Version == other.Version &&
		p.FeeBps == other.FeeBps &&
		p.Asset == other.Asset &&
		p.PoolNFT == other.PoolNFT &&
		p.ReserveA.Eq(other.ReserveA) &&
		p.ReserveB.Eq(other.ReserveB) &&
		p.LPSupply.Eq(other.LPSupply)
}

// poolStateJSON carries amounts as decimal strings, the same convention the
// rest of the toolchain uses for 128-bit quantities.
type poolStateJSON struct {
	Version  uint64  `json:"version"`
	ReserveA string  `json:"reserve_a"`
	ReserveB string  `json:"reserve_b"`
	LPSupply string  `json:"lp_supply"`
	FeeBps   uint16  `json:"fee_bps"`
	Asset    AssetID `json:"asset"`
	PoolNFT  AssetID `json:"pool_nft"`
}

func (p PoolState) MarshalJSON() ([]byte, error) {
	if p.ReserveA == nil || p.ReserveB == nil || p.LPSupply == nil {
		return nil, fmt.Errorf("pool state has nil amounts")
	}
	return json.Marshal(poolStateJSON{
		Version:  p.Version,
		ReserveA: p.ReserveA.Dec(),
		ReserveB: p.ReserveB.Dec(),
		LPSupply: p.LPSupply.Dec(),
		FeeBps:   p.FeeBps,
		Asset:    p.Asset,
		PoolNFT:  p.PoolNFT,
	})
}

func (p *PoolState) UnmarshalJSON(data []byte) error {
	var raw poolStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	reserveA, err := parseAmount(raw.ReserveA)
	if err != nil {
		return fmt.Errorf("reserve_a: %w", err)
	}
	reserveB, err := parseAmount(raw.ReserveB)
	if err != nil {
		return fmt.Errorf("reserve_b: %w", err)
	}
	lpSupply, err := parseAmount(raw.LPSupply)
	if err != nil {
		return fmt.Errorf("lp_supply: %w", err)
	}

	p.Version = raw.Version
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	p.LPSupply = lpSupply
	p.FeeBps = raw.FeeBps
	p.Asset = raw.Asset
	p.PoolNFT = raw.PoolNFT
	return nil
}

// EncodedSize returns the byte length of the canonical encoding, the figure
// the reserve-adequacy floor is computed from.
func (p PoolState) EncodedSize() (uint64, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

// AssetCount returns the number of non-native asset types held by the pool
// record: the paired asset plus the pool's uniqueness token.
func (p PoolState) AssetCount() uint64 {
	return 2
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return uint256.NewInt(0), nil
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return parsed, nil
}
