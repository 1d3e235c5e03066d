package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"poolCore/internal/model"
)

// Client wraps go-ethereum RPC and reads pool mirror state. The engine never
// sees this package; it exists so the off-chain tooling can obtain
// PoolState snapshots.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID. The watch command logs it at startup so
// a misconfigured RPC endpoint is visible immediately.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the tip block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
// The quote command reads the tip timestamp here to run deadline checks
// against ledger time when no explicit time is given.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FetchPoolState reads the pool mirror contract's current record. The asset
// identities are not carried on the mirror; the caller supplies them from
// its pool registry configuration.
func (c *Client) FetchPoolState(
	ctx context.Context,
	poolAddress common.Address,
	asset model.AssetID,
	poolNFT model.AssetID,
) (model.PoolState, error) {
	mirrorABI, err := loadPoolMirrorABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("load mirror abi: %w", err)
	}

	data, err := mirrorABI.Pack("getState")
	if err != nil {
		return model.PoolState{}, fmt.Errorf("pack getState: %w", err)
	}

	raw, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &poolAddress, Data: data}, nil)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("call getState: %w", err)
	}

	values, err := mirrorABI.Unpack("getState", raw)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("unpack getState: %w", err)
	}
	if len(values) != 5 {
		return model.PoolState{}, fmt.Errorf("getState returned %d values, want 5", len(values))
	}

	reserveA, err := toAmount(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("reserve_a: %w", err)
	}
	reserveB, err := toAmount(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("reserve_b: %w", err)
	}
	lpSupply, err := toAmount(values[2])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("lp_supply: %w", err)
	}
	feeBps, ok := values[3].(uint16)
	if !ok {
		return model.PoolState{}, fmt.Errorf("fee_bps has unexpected type %T", values[3])
	}
	version, ok := values[4].(uint64)
	if !ok {
		return model.PoolState{}, fmt.Errorf("version has unexpected type %T", values[4])
	}

	state := model.PoolState{
		Version:  version,
		ReserveA: reserveA,
		ReserveB: reserveB,
		LPSupply: lpSupply,
		FeeBps:   feeBps,
		Asset:    asset,
		PoolNFT:  poolNFT,
	}
	if err := state.Validate(); err != nil {
		return model.PoolState{}, fmt.Errorf("fetched state: %w", err)
	}
	return state, nil
}

func toAmount(value interface{}) (*uint256.Int, error) {
	b, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", value)
	}
	amount, overflow := uint256.FromBig(b)
	if overflow || amount.BitLen() > 128 {
		return nil, fmt.Errorf("amount %s exceeds 128 bits", b)
	}
	return amount, nil
}
