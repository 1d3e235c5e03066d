package engine

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMinimumReserveValue(t *testing.T) {
	// coinsPerByte * (base + size + perAsset*count)
	want := uint64(4310 * (160 + 100 + 44*2))
	if got := MinimumReserve(100, 2); got.Uint64() != want {
		t.Fatalf("MinimumReserve(100, 2) = %s, want %d", got.Dec(), want)
	}
}

func TestMinimumReserveMonotone(t *testing.T) {
	base := MinimumReserve(200, 2)

	if !MinimumReserve(201, 2).Gt(base) {
		t.Fatalf("floor did not grow with encoded size")
	}
	if !MinimumReserve(200, 3).Gt(base) {
		t.Fatalf("floor did not grow with asset count")
	}
}

func TestCheckAdequacy(t *testing.T) {
	floor := MinimumReserve(300, 2)

	if err := CheckAdequacy(floor, 300, 2); err != nil {
		t.Fatalf("balance at the floor should pass: %v", err)
	}

	below := new(uint256.Int).SubUint64(floor, 1)
	if err := CheckAdequacy(below, 300, 2); !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve, got %v", err)
	}

	if err := CheckAdequacy(nil, 300, 2); !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve for nil balance, got %v", err)
	}
}
