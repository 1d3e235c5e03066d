package engine

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"poolCore/internal/fixedpoint"
)

func TestQuoteAddLiquidityBootstrap(t *testing.T) {
	state := newTestPool(0, 0, 0, 30)
	state.Version = 0

	amountA := uint256.NewInt(100_000_000)
	amountB := uint256.NewInt(2_301_952_000)

	quote, err := QuoteAddLiquidity(state, amountA, amountB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product := new(uint256.Int).Mul(amountA, amountB)
	want := fixedpoint.Sqrt(product)
	if !quote.LPMinted.Eq(want) {
		t.Fatalf("lp minted = %s, want geometric mean %s", quote.LPMinted.Dec(), want.Dec())
	}
	if !quote.NewReserveA.Eq(amountA) || !quote.NewReserveB.Eq(amountB) {
		t.Fatalf("bootstrap reserves = %s/%s", quote.NewReserveA.Dec(), quote.NewReserveB.Dec())
	}
}

func TestQuoteAddLiquidityBootstrapDegenerate(t *testing.T) {
	state := newTestPool(0, 0, 0, 30)

	// 0-valued geometric mean is impossible with positive inputs, but the
	// zero-amount gate must fire first either way.
	if _, err := QuoteAddLiquidity(state, uint256.NewInt(0), uint256.NewInt(100)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity for zero side, got %v", err)
	}
}

func TestQuoteAddLiquidityProportional(t *testing.T) {
	state := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	// Deposit at the exact current ratio: 1:4.
	quote, err := QuoteAddLiquidity(state, uint256.NewInt(1_000_000), uint256.NewInt(4_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// shareA = 1e6 * 2e7 / 1e7 = 2e6, shareB identical.
	if got := quote.LPMinted.Uint64(); got != 2_000_000 {
		t.Fatalf("lp minted = %d, want 2000000", got)
	}
	if quote.NewReserveA.Uint64() != 11_000_000 || quote.NewReserveB.Uint64() != 44_000_000 {
		t.Fatalf("new reserves = %s/%s", quote.NewReserveA.Dec(), quote.NewReserveB.Dec())
	}
}

func TestQuoteAddLiquidityUnbalancedMintsWeakerSide(t *testing.T) {
	state := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	// Side B is overweighted; the mint follows side A and the surplus B is
	// donated to the pool.
	quote, err := QuoteAddLiquidity(state, uint256.NewInt(1_000_000), uint256.NewInt(9_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := quote.LPMinted.Uint64(); got != 2_000_000 {
		t.Fatalf("lp minted = %d, want 2000000 (side A share)", got)
	}
	if quote.NewReserveB.Uint64() != 49_000_000 {
		t.Fatalf("surplus not retained: new reserve B = %s", quote.NewReserveB.Dec())
	}
}

func TestAddThenRemoveNeverFavorsDepositor(t *testing.T) {
	cases := []struct {
		reserveA, reserveB, lpSupply, amountA, amountB uint64
	}{
		{10_000_000, 40_000_000, 20_000_000, 1_000_000, 4_000_000},
		{10_000_000, 40_000_000, 20_000_000, 999_999, 4_000_001},
		{3, 7, 13, 2, 5},
		{1_000_000_007, 998_244_353, 777_777_777, 123_456, 654_321},
	}

	for _, tc := range cases {
		state := newTestPool(tc.reserveA, tc.reserveB, tc.lpSupply, 30)
		amountA := uint256.NewInt(tc.amountA)
		amountB := uint256.NewInt(tc.amountB)

		add, err := QuoteAddLiquidity(state, amountA, amountB)
		if errors.Is(err, ErrInsufficientLiquidity) {
			continue
		}
		if err != nil {
			t.Fatalf("case %+v: add: %v", tc, err)
		}

		after := state.Clone()
		after.ReserveA = add.NewReserveA
		after.ReserveB = add.NewReserveB
		after.LPSupply = new(uint256.Int).Add(state.LPSupply, add.LPMinted)

		remove, err := QuoteRemoveLiquidity(after, add.LPMinted)
		if err != nil {
			t.Fatalf("case %+v: remove: %v", tc, err)
		}

		if remove.AmountAOut.Gt(amountA) {
			t.Fatalf("case %+v: withdrew %s of A for deposit %s", tc, remove.AmountAOut.Dec(), amountA.Dec())
		}
		if remove.AmountBOut.Gt(amountB) {
			t.Fatalf("case %+v: withdrew %s of B for deposit %s", tc, remove.AmountBOut.Dec(), amountB.Dec())
		}
	}
}

func TestQuoteRemoveLiquidityProportional(t *testing.T) {
	state := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	quote, err := QuoteRemoveLiquidity(state, uint256.NewInt(5_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.AmountAOut.Uint64() != 2_500_000 || quote.AmountBOut.Uint64() != 10_000_000 {
		t.Fatalf("payout = %s/%s", quote.AmountAOut.Dec(), quote.AmountBOut.Dec())
	}
	if quote.NewReserveA.Uint64() != 7_500_000 || quote.NewReserveB.Uint64() != 30_000_000 {
		t.Fatalf("new reserves = %s/%s", quote.NewReserveA.Dec(), quote.NewReserveB.Dec())
	}
}

func TestQuoteRemoveLiquidityFullWithdrawal(t *testing.T) {
	state := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	quote, err := QuoteRemoveLiquidity(state, uint256.NewInt(20_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !quote.NewReserveA.IsZero() || !quote.NewReserveB.IsZero() {
		t.Fatalf("full withdrawal left reserves %s/%s", quote.NewReserveA.Dec(), quote.NewReserveB.Dec())
	}
	if quote.AmountAOut.Uint64() != 10_000_000 || quote.AmountBOut.Uint64() != 40_000_000 {
		t.Fatalf("payout = %s/%s", quote.AmountAOut.Dec(), quote.AmountBOut.Dec())
	}
}

func TestQuoteRemoveLiquidityInvalidBurn(t *testing.T) {
	state := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	if _, err := QuoteRemoveLiquidity(state, uint256.NewInt(0)); !errors.Is(err, ErrInvalidBurnAmount) {
		t.Fatalf("expected ErrInvalidBurnAmount for zero burn, got %v", err)
	}
	if _, err := QuoteRemoveLiquidity(state, uint256.NewInt(20_000_001)); !errors.Is(err, ErrInvalidBurnAmount) {
		t.Fatalf("expected ErrInvalidBurnAmount for oversized burn, got %v", err)
	}
}
