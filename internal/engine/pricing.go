package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"poolCore/internal/fixedpoint"
	"poolCore/internal/model"
)

// feeDenominator expresses fees in basis points out of 10000.
var feeDenominator = uint256.NewInt(10000)

// SwapQuote is the outcome of a swap computed against a fixed prior state.
type SwapQuote struct {
	AmountOut   *uint256.Int
	NewReserveA *uint256.Int
	NewReserveB *uint256.Int
}

// QuoteSwap computes the constant-product output for amountIn. The fee is
// deducted from the input before pricing and stays in the pool, so the
// reserve product never decreases across an accepted swap. Output rounds
// down; a swap that would empty either side is rejected.
func QuoteSwap(state model.PoolState, amountIn *uint256.Int, directionAToB bool) (SwapQuote, error) {
	if state.ReserveA == nil || state.ReserveB == nil ||
		state.ReserveA.IsZero() || state.ReserveB.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: both reserves must be positive", ErrInvalidReserves)
	}
	if amountIn == nil || amountIn.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: amount in must be positive", ErrInsufficientLiquidity)
	}
	if !fixedpoint.Fits128(amountIn) {
		return SwapQuote{}, fmt.Errorf("amount in: %w", ErrOverflow)
	}

	reserveIn, reserveOut := state.ReserveA, state.ReserveB
	if !directionAToB {
		reserveIn, reserveOut = state.ReserveB, state.ReserveA
	}

	feeNumerator := uint256.NewInt(10000 - uint64(state.FeeBps))
	afterFee, err := fixedpoint.MulDiv(amountIn, feeNumerator, feeDenominator, fixedpoint.RoundDown)
	if err != nil {
		return SwapQuote{}, fmt.Errorf("fee deduction: %w", err)
	}

	denom := new(uint256.Int).Add(reserveIn, afterFee)
	if !fixedpoint.Fits128(denom) {
		return SwapQuote{}, fmt.Errorf("input reserve growth: %w", ErrOverflow)
	}
	amountOut, err := fixedpoint.MulDiv(afterFee, reserveOut, denom, fixedpoint.RoundDown)
	if err != nil {
		return SwapQuote{}, fmt.Errorf("swap output: %w", err)
	}

	if amountOut.IsZero() {
		return SwapQuote{}, fmt.Errorf("%w: output rounds to zero", ErrInsufficientLiquidity)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return SwapQuote{}, fmt.Errorf("%w: output %s would drain reserve %s",
			ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}

	newIn := new(uint256.Int).Add(reserveIn, amountIn)
	if !fixedpoint.Fits128(newIn) {
		return SwapQuote{}, fmt.Errorf("new input reserve: %w", ErrOverflow)
	}
	newOut := new(uint256.Int).Sub(reserveOut, amountOut)

	quote := SwapQuote{AmountOut: amountOut}
	if directionAToB {
		quote.NewReserveA, quote.NewReserveB = newIn, newOut
	} else {
		quote.NewReserveA, quote.NewReserveB = newOut, newIn
	}
	return quote, nil
}
