package engine

import (
	"errors"

	"poolCore/internal/fixedpoint"
)

// One sentinel per rejectable invariant. Callers match with errors.Is; the
// engine wraps these with context but never returns a partial result
// alongside one.
var (
	// ErrOverflow is returned when an amount leaves the 128-bit domain.
	ErrOverflow = fixedpoint.ErrOverflow
	// ErrDivisionByZero is returned on a zero divisor in reserve math.
	ErrDivisionByZero = fixedpoint.ErrDivisionByZero
	// ErrInvalidReserves is returned when a swap is quoted against an empty
	// reserve side.
	ErrInvalidReserves = errors.New("invalid reserves")
	// ErrInsufficientLiquidity is returned when a swap produces no output,
	// would drain a reserve, or a deposit mints zero shares.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrDegenerateInitialDeposit is returned when the bootstrap deposit is
	// too small to mint any shares.
	ErrDegenerateInitialDeposit = errors.New("degenerate initial deposit")
	// ErrInvalidBurnAmount is returned when a burn is zero or exceeds supply.
	ErrInvalidBurnAmount = errors.New("invalid burn amount")
	// ErrInsufficientReserve is returned when an output record's native
	// balance is below its adequacy floor.
	ErrInsufficientReserve = errors.New("insufficient minimum reserve")
	// ErrExpired is returned when current time has passed the deadline.
	ErrExpired = errors.New("deadline expired")
	// ErrSlippageExceeded is returned when an output is below the caller's
	// declared minimum.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrIdentityMismatch is returned when a transition changes the asset or
	// pool token identity.
	ErrIdentityMismatch = errors.New("asset identity mismatch")
	// ErrFeeMismatch is returned when a transition changes the fee.
	ErrFeeMismatch = errors.New("fee mismatch")
	// ErrStaleState is returned when the prior state version has been
	// superseded.
	ErrStaleState = errors.New("stale pool state")
	// ErrMismatchedRecomputation is returned when the proposed new state
	// differs from the independently recomputed one.
	ErrMismatchedRecomputation = errors.New("proposed state does not match recomputation")
)
