package engine

import (
	"fmt"

	"github.com/holiman/uint256"
)

// CheckDeadline rejects an operation whose deadline has passed. Both values
// are hosting-ledger time (slot or height); the engine never reads a clock.
func CheckDeadline(deadline, currentTime uint64) error {
	if currentTime > deadline {
		return fmt.Errorf("%w: current time %d past deadline %d", ErrExpired, currentTime, deadline)
	}
	return nil
}

// CheckMinOut rejects an output below the caller's declared minimum. A nil
// minimum means the caller accepts any output.
func CheckMinOut(actual, minimum *uint256.Int) error {
	if minimum == nil {
		return nil
	}
	if actual.Lt(minimum) {
		return fmt.Errorf("%w: got %s, caller requires at least %s",
			ErrSlippageExceeded, actual.Dec(), minimum.Dec())
	}
	return nil
}
