package engine

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Ledger pricing of record storage: every persisted record must carry a
// native-currency balance covering its own footprint.
const (
	coinsPerByte      = 4310
	baseOverheadBytes = 160
	perAssetBytes     = 44
)

// MinimumReserve returns the native-balance floor for a record of the given
// encoded size holding assetCount distinct non-native asset types. Strictly
// monotone in both arguments.
func MinimumReserve(encodedSizeBytes, assetCount uint64) *uint256.Int {
	bytes := new(uint256.Int).AddUint64(
		uint256.NewInt(baseOverheadBytes+encodedSizeBytes),
		perAssetBytes*assetCount,
	)
	return bytes.Mul(bytes, uint256.NewInt(coinsPerByte))
}

// CheckAdequacy verifies that a record's native balance meets its floor. It
// applies to any output of a transition, the pool record and side outputs
// alike.
func CheckAdequacy(nativeBalance *uint256.Int, encodedSizeBytes, assetCount uint64) error {
	if nativeBalance == nil {
		return fmt.Errorf("%w: native balance is nil", ErrInsufficientReserve)
	}
	floor := MinimumReserve(encodedSizeBytes, assetCount)
	if nativeBalance.Lt(floor) {
		return fmt.Errorf("%w: balance %s below floor %s for %d bytes and %d assets",
			ErrInsufficientReserve, nativeBalance.Dec(), floor.Dec(), encodedSizeBytes, assetCount)
	}
	return nil
}

// Output describes one record produced by a transition, as seen by the
// reserve-adequacy guard. EncodedSize comes from the serialization layer.
type Output struct {
	NativeBalance *uint256.Int
	EncodedSize   uint64
	AssetCount    uint64
}
