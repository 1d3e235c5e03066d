package engine

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"poolCore/internal/model"
)

func measuredSizes(t *testing.T, proposed model.PoolState) OutputSizes {
	t.Helper()
	size, err := proposed.EncodedSize()
	if err != nil {
		t.Fatalf("encode proposed state: %v", err)
	}
	return OutputSizes{PoolOutput: size}
}

func swapProposal(t *testing.T, old model.PoolState, op model.Swap) model.PoolState {
	t.Helper()
	quote, err := QuoteSwap(old, op.AmountIn, op.DirectionAToB)
	if err != nil {
		t.Fatalf("quote swap: %v", err)
	}
	proposed := old.Clone()
	proposed.Version = old.Version + 1
	proposed.ReserveA = quote.NewReserveA
	proposed.ReserveB = quote.NewReserveB
	return proposed
}

func TestValidateTransitionAcceptsSwap(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, MinOut: uint256.NewInt(22_000_000), Deadline: 500}
	proposed := swapProposal(t, old, op)

	if err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed)); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestValidateTransitionRejectsTamperedReserve(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	// One unit in the attacker's favor.
	proposed.ReserveB.SubUint64(proposed.ReserveB, 1)

	err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrMismatchedRecomputation) {
		t.Fatalf("expected ErrMismatchedRecomputation, got %v", err)
	}
}

func TestValidateTransitionRejectsIdentityChange(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	proposed.Asset.Name = "deadbeef"

	err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
}

func TestValidateTransitionRejectsFeeChange(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	proposed.FeeBps = 25

	err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrFeeMismatch) {
		t.Fatalf("expected ErrFeeMismatch, got %v", err)
	}
}

func TestValidateTransitionRejectsStaleVersion(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	proposed.Version = old.Version + 2

	err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
}

func TestValidateTransitionRejectsExpiredDeadline(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	err := ValidateTransition(old, op, proposed, 501, measuredSizes(t, proposed))
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateTransitionRejectsSlippage(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, MinOut: uint256.NewInt(23_000_000), Deadline: 500}
	proposed := swapProposal(t, old, op)

	err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}
}

func TestValidateTransitionRejectsInadequateReserve(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	// Arithmetic is correct, but a huge encoded record raises the floor past
	// the pool's native balance.
	sizes := OutputSizes{PoolOutput: 1 << 30}

	err := ValidateTransition(old, op, proposed, 400, sizes)
	if !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve, got %v", err)
	}
}

func TestValidateTransitionChecksSideOutputs(t *testing.T) {
	old := newTestPool(100_000_000_000, 2_301_952_000_000, 1_000_000_000, 30)
	op := model.Swap{AmountIn: uint256.NewInt(1_000_000), DirectionAToB: true, Deadline: 500}
	proposed := swapProposal(t, old, op)

	sizes := measuredSizes(t, proposed)
	sizes.SideOutputs = []Output{{NativeBalance: uint256.NewInt(1), EncodedSize: 120, AssetCount: 1}}

	err := ValidateTransition(old, op, proposed, 400, sizes)
	if !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve for side output, got %v", err)
	}
}

func TestValidateTransitionBootstrap(t *testing.T) {
	old := newTestPool(0, 0, 0, 30)
	old.Version = 0

	op := model.AddLiquidity{
		AmountA:  uint256.NewInt(100_000_000),
		AmountB:  uint256.NewInt(2_301_952_000),
		Deadline: 500,
	}
	quote, err := QuoteAddLiquidity(old, op.AmountA, op.AmountB)
	if err != nil {
		t.Fatalf("quote bootstrap: %v", err)
	}

	proposed := old.Clone()
	proposed.Version = 1
	proposed.ReserveA = quote.NewReserveA
	proposed.ReserveB = quote.NewReserveB
	proposed.LPSupply = quote.LPMinted

	if err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed)); err != nil {
		t.Fatalf("expected bootstrap acceptance, got %v", err)
	}
	if !proposed.LPSupply.Eq(quote.LPMinted) {
		t.Fatalf("bootstrap supply %s != minted %s", proposed.LPSupply.Dec(), quote.LPMinted.Dec())
	}
}

func TestValidateTransitionFullWithdrawal(t *testing.T) {
	old := newTestPool(10_000_000, 40_000_000, 20_000_000, 30)

	op := model.RemoveLiquidity{LPBurn: uint256.NewInt(20_000_000), Deadline: 500}
	quote, err := QuoteRemoveLiquidity(old, op.LPBurn)
	if err != nil {
		t.Fatalf("quote removal: %v", err)
	}

	proposed := old.Clone()
	proposed.Version = old.Version + 1
	proposed.ReserveA = quote.NewReserveA
	proposed.ReserveB = quote.NewReserveB
	proposed.LPSupply = uint256.NewInt(0)

	if err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed)); err != nil {
		t.Fatalf("terminal-liquidity state should be accepted, got %v", err)
	}
	if !proposed.ReserveA.IsZero() || !proposed.ReserveB.IsZero() {
		t.Fatalf("reserves not drained: %s/%s", proposed.ReserveA.Dec(), proposed.ReserveB.Dec())
	}
}

func TestValidateTransitionAddLiquidity(t *testing.T) {
	old := newTestPool(10_000_000_000, 40_000_000_000, 20_000_000_000, 30)

	op := model.AddLiquidity{
		AmountA:  uint256.NewInt(1_000_000),
		AmountB:  uint256.NewInt(4_000_000),
		MinLPOut: uint256.NewInt(2_000_000),
		Deadline: 500,
	}
	quote, err := QuoteAddLiquidity(old, op.AmountA, op.AmountB)
	if err != nil {
		t.Fatalf("quote add: %v", err)
	}

	proposed := old.Clone()
	proposed.Version = old.Version + 1
	proposed.ReserveA = quote.NewReserveA
	proposed.ReserveB = quote.NewReserveB
	proposed.LPSupply = new(uint256.Int).Add(old.LPSupply, quote.LPMinted)

	if err := ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed)); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}

	// Supply tampering is caught by the exact-match rule.
	proposed.LPSupply.AddUint64(proposed.LPSupply, 1)
	err = ValidateTransition(old, op, proposed, 400, measuredSizes(t, proposed))
	if !errors.Is(err, ErrMismatchedRecomputation) {
		t.Fatalf("expected ErrMismatchedRecomputation, got %v", err)
	}
}
