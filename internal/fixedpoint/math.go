package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Rounding selects the direction for inexact division results.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

var (
	// ErrOverflow is returned when an operand or result exceeds 128 bits.
	ErrOverflow = errors.New("value exceeds 128 bits")
	// ErrDivisionByZero is returned when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// U128Max is the largest value representable in the 128-bit amount domain.
var U128Max = func() *uint256.Int {
	max := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return max.SubUint64(max, 1)
}()

// Fits128 reports whether x is within the 128-bit amount domain.
func Fits128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

// MulDiv computes a*b/denom using a full-width intermediate product, so the
// multiplication itself cannot overflow for 128-bit operands. The result must
// fit back into 128 bits. Rounding direction is always explicit at the call
// site; a is never mutated.
func MulDiv(a, b, denom *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, ErrDivisionByZero
	}
	if !Fits128(a) || !Fits128(b) || !Fits128(denom) {
		return nil, ErrOverflow
	}

	// 128-bit operands make the 256-bit product exact.
	prod := new(uint256.Int).Mul(a, b)
	quo := new(uint256.Int).Div(prod, denom)

	if rounding == RoundUp {
		rem := new(uint256.Int).Mod(prod, denom)
		if !rem.IsZero() {
			quo.AddUint64(quo, 1)
		}
	}

	if !Fits128(quo) {
		return nil, ErrOverflow
	}
	return quo, nil
}

// Mul computes a*b, failing if either operand or the product leaves the
// 128-bit domain.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	if !Fits128(a) || !Fits128(b) {
		return nil, ErrOverflow
	}
	prod := new(uint256.Int).Mul(a, b)
	if !Fits128(prod) {
		return nil, ErrOverflow
	}
	return prod, nil
}

// WideMul computes a*b without a 128-bit bound on the product. Operands must
// still be 128-bit; the 256-bit result is exact.
func WideMul(a, b *uint256.Int) (*uint256.Int, error) {
	if !Fits128(a) || !Fits128(b) {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Mul(a, b), nil
}

// Sqrt returns the integer square root of x, rounded down. Babylonian
// iteration, converging from above.
func Sqrt(x *uint256.Int) *uint256.Int {
	if x.IsZero() {
		return new(uint256.Int)
	}
	if x.LtUint64(4) {
		return uint256.NewInt(1)
	}

	z := new(uint256.Int).Set(x)
	guess := new(uint256.Int).Rsh(x, 1)
	guess.AddUint64(guess, 1)
	next := new(uint256.Int)
	for guess.Lt(z) {
		z.Set(guess)
		next.Div(x, guess)
		next.Add(next, guess)
		guess.Rsh(next, 1)
	}
	return z
}
