package engine

import (
	"fmt"

	"poolCore/internal/model"
)

// OutputSizes carries the encoded byte lengths the serialization layer
// measured for each record a transition produces. The pool record's size is
// always present; side outputs (for example the trader's received-asset
// record) bring their own balances and sizes.
type OutputSizes struct {
	PoolOutput  uint64
	SideOutputs []Output
}

// ValidateTransition is the sole authority consulted by the hosting ledger.
// It independently recomputes the transition from the prior state and the
// operation, requires the proposed state to match that recomputation
// exactly, and applies the operation and reserve-adequacy guards. Any
// failing check rejects the whole transition; the function is pure and safe
// to call concurrently for different pools.
func ValidateTransition(
	old model.PoolState,
	op model.Operation,
	proposed model.PoolState,
	currentTime uint64,
	sizes OutputSizes,
) error {
	if err := old.Validate(); err != nil {
		return fmt.Errorf("prior state: %w", err)
	}
	if proposed.ReserveA == nil || proposed.ReserveB == nil || proposed.LPSupply == nil {
		return fmt.Errorf("%w: proposed state has nil amounts", ErrMismatchedRecomputation)
	}

	if proposed.Version != old.Version+1 {
		return fmt.Errorf("%w: proposed version %d does not extend prior version %d",
			ErrStaleState, proposed.Version, old.Version)
	}
	if proposed.Asset != old.Asset || proposed.PoolNFT != old.PoolNFT {
		return fmt.Errorf("%w: pool %s", ErrIdentityMismatch, old.PoolNFT)
	}
	if proposed.FeeBps != old.FeeBps {
		return fmt.Errorf("%w: fee changed from %d to %d bps", ErrFeeMismatch, old.FeeBps, proposed.FeeBps)
	}

	expected := old.Clone()
	expected.Version = old.Version + 1

	switch o := op.(type) {
	case model.Swap:
		quote, err := QuoteSwap(old, o.AmountIn, o.DirectionAToB)
		if err != nil {
			return err
		}
		if err := CheckDeadline(o.Deadline, currentTime); err != nil {
			return err
		}
		if err := CheckMinOut(quote.AmountOut, o.MinOut); err != nil {
			return err
		}
		expected.ReserveA = quote.NewReserveA
		expected.ReserveB = quote.NewReserveB

	case model.AddLiquidity:
		quote, err := QuoteAddLiquidity(old, o.AmountA, o.AmountB)
		if err != nil {
			return err
		}
		if err := CheckDeadline(o.Deadline, currentTime); err != nil {
			return err
		}
		if err := CheckMinOut(quote.LPMinted, o.MinLPOut); err != nil {
			return err
		}
		expected.ReserveA = quote.NewReserveA
		expected.ReserveB = quote.NewReserveB
		expected.LPSupply.Add(old.LPSupply, quote.LPMinted)

	case model.RemoveLiquidity:
		quote, err := QuoteRemoveLiquidity(old, o.LPBurn)
		if err != nil {
			return err
		}
		if err := CheckDeadline(o.Deadline, currentTime); err != nil {
			return err
		}
		if err := CheckMinOut(quote.AmountAOut, o.MinAOut); err != nil {
			return err
		}
		if err := CheckMinOut(quote.AmountBOut, o.MinBOut); err != nil {
			return err
		}
		expected.ReserveA = quote.NewReserveA
		expected.ReserveB = quote.NewReserveB
		expected.LPSupply.Sub(old.LPSupply, o.LPBurn)

	default:
		return fmt.Errorf("unknown operation kind %v", op.Kind())
	}

	if !proposed.Equal(expected) {
		return fmt.Errorf("%w: %s operation", ErrMismatchedRecomputation, op.Kind())
	}
	if err := proposed.Validate(); err != nil {
		return fmt.Errorf("proposed state: %w", err)
	}

	// A full withdrawal empties the record entirely; the storage floor
	// applies only while the pool output still holds value.
	terminal := !proposed.Initialized() && proposed.ReserveA.IsZero() && proposed.ReserveB.IsZero()
	if !terminal {
		if err := CheckAdequacy(proposed.ReserveA, sizes.PoolOutput, proposed.AssetCount()); err != nil {
			return fmt.Errorf("pool output: %w", err)
		}
	}
	for i, out := range sizes.SideOutputs {
		if err := CheckAdequacy(out.NativeBalance, out.EncodedSize, out.AssetCount); err != nil {
			return fmt.Errorf("side output %d: %w", i, err)
		}
	}

	return nil
}
