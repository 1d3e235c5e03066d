package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"poolCore/internal/fixedpoint"
	"poolCore/internal/model"
)

// AddQuote is the outcome of a liquidity deposit.
type AddQuote struct {
	LPMinted    *uint256.Int
	NewReserveA *uint256.Int
	NewReserveB *uint256.Int
}

// RemoveQuote is the outcome of a liquidity withdrawal.
type RemoveQuote struct {
	AmountAOut  *uint256.Int
	AmountBOut  *uint256.Int
	NewReserveA *uint256.Int
	NewReserveB *uint256.Int
}

// QuoteAddLiquidity computes the LP shares minted for depositing amountA and
// amountB. The first deposit mints the geometric mean of the two amounts,
// fixing the initial implied price. Later deposits mint the smaller of the
// two reserve-ratio shares, so a lopsided deposit can never mint more than
// its weaker side justifies; the excess of the larger side stays in the pool.
func QuoteAddLiquidity(state model.PoolState, amountA, amountB *uint256.Int) (AddQuote, error) {
	if amountA == nil || amountB == nil || amountA.IsZero() || amountB.IsZero() {
		return AddQuote{}, fmt.Errorf("%w: both deposit amounts must be positive", ErrInsufficientLiquidity)
	}
	if !fixedpoint.Fits128(amountA) || !fixedpoint.Fits128(amountB) {
		return AddQuote{}, fmt.Errorf("deposit amounts: %w", ErrOverflow)
	}
	if state.ReserveA == nil || state.ReserveB == nil || state.LPSupply == nil {
		return AddQuote{}, fmt.Errorf("%w: pool state has nil amounts", ErrInvalidReserves)
	}

	var lpMinted *uint256.Int
	if !state.Initialized() {
		product, err := fixedpoint.WideMul(amountA, amountB)
		if err != nil {
			return AddQuote{}, fmt.Errorf("bootstrap product: %w", err)
		}
		lpMinted = fixedpoint.Sqrt(product)
		if lpMinted.IsZero() {
			return AddQuote{}, fmt.Errorf("%w: geometric mean of %s and %s is zero",
				ErrDegenerateInitialDeposit, amountA.Dec(), amountB.Dec())
		}
	} else {
		if state.ReserveA.IsZero() || state.ReserveB.IsZero() {
			return AddQuote{}, fmt.Errorf("%w: both reserves must be positive", ErrInvalidReserves)
		}
		shareA, err := fixedpoint.MulDiv(amountA, state.LPSupply, state.ReserveA, fixedpoint.RoundDown)
		if err != nil {
			return AddQuote{}, fmt.Errorf("share of side A: %w", err)
		}
		shareB, err := fixedpoint.MulDiv(amountB, state.LPSupply, state.ReserveB, fixedpoint.RoundDown)
		if err != nil {
			return AddQuote{}, fmt.Errorf("share of side B: %w", err)
		}
		lpMinted = shareA
		if shareB.Lt(shareA) {
			lpMinted = shareB
		}
		if lpMinted.IsZero() {
			return AddQuote{}, fmt.Errorf("%w: deposit mints zero shares", ErrInsufficientLiquidity)
		}
	}

	newReserveA := new(uint256.Int).Add(state.ReserveA, amountA)
	newReserveB := new(uint256.Int).Add(state.ReserveB, amountB)
	newSupply := new(uint256.Int).Add(state.LPSupply, lpMinted)
	if !fixedpoint.Fits128(newReserveA) || !fixedpoint.Fits128(newReserveB) || !fixedpoint.Fits128(newSupply) {
		return AddQuote{}, fmt.Errorf("reserve growth: %w", ErrOverflow)
	}

	return AddQuote{LPMinted: lpMinted, NewReserveA: newReserveA, NewReserveB: newReserveB}, nil
}

// QuoteRemoveLiquidity computes the proportional withdrawal for burning
// lpBurn shares, rounding both payouts down. Burning the entire supply is a
// valid terminal state that drives both reserves to exactly zero.
func QuoteRemoveLiquidity(state model.PoolState, lpBurn *uint256.Int) (RemoveQuote, error) {
	if lpBurn == nil || lpBurn.IsZero() {
		return RemoveQuote{}, fmt.Errorf("%w: burn must be positive", ErrInvalidBurnAmount)
	}
	if state.LPSupply == nil || state.LPSupply.IsZero() {
		return RemoveQuote{}, fmt.Errorf("%w: pool has no outstanding shares", ErrInvalidBurnAmount)
	}
	if state.ReserveA == nil || state.ReserveB == nil {
		return RemoveQuote{}, fmt.Errorf("%w: pool state has nil amounts", ErrInvalidReserves)
	}
	if lpBurn.Gt(state.LPSupply) {
		return RemoveQuote{}, fmt.Errorf("%w: burn %s exceeds supply %s",
			ErrInvalidBurnAmount, lpBurn.Dec(), state.LPSupply.Dec())
	}

	amountAOut, err := fixedpoint.MulDiv(lpBurn, state.ReserveA, state.LPSupply, fixedpoint.RoundDown)
	if err != nil {
		return RemoveQuote{}, fmt.Errorf("withdrawal of side A: %w", err)
	}
	amountBOut, err := fixedpoint.MulDiv(lpBurn, state.ReserveB, state.LPSupply, fixedpoint.RoundDown)
	if err != nil {
		return RemoveQuote{}, fmt.Errorf("withdrawal of side B: %w", err)
	}

	return RemoveQuote{
		AmountAOut:  amountAOut,
		AmountBOut:  amountBOut,
		NewReserveA: new(uint256.Int).Sub(state.ReserveA, amountAOut),
		NewReserveB: new(uint256.Int).Sub(state.ReserveB, amountBOut),
	}, nil
}
