package model

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// OpKind discriminates the closed set of pool operations.
type OpKind uint8

const (
	OpSwap OpKind = iota + 1
	OpAddLiquidity
	OpRemoveLiquidity
)

func (k OpKind) String() string {
	switch k {
	case OpSwap:
		return "swap"
	case OpAddLiquidity:
		return "add_liquidity"
	case OpRemoveLiquidity:
		return "remove_liquidity"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Operation is a caller-requested pool transition. The set of
// implementations is closed; the validator type-switches over it
// exhaustively.
type Operation interface {
	Kind() OpKind
	// OpDeadline is the last ledger time at which the operation may execute.
	OpDeadline() uint64
}

// Swap trades one side of the pair for the other.
type Swap struct {
	AmountIn      *uint256.Int
	DirectionAToB bool
	MinOut        *uint256.Int
	Deadline      uint64
}

func (s Swap) Kind() OpKind       { return OpSwap }
func (s Swap) OpDeadline() uint64 { return s.Deadline }

// AddLiquidity deposits both assets and mints LP shares.
type AddLiquidity struct {
	AmountA  *uint256.Int
	AmountB  *uint256.Int
	MinLPOut *uint256.Int
	Deadline uint64
}

func (a AddLiquidity) Kind() OpKind       { return OpAddLiquidity }
func (a AddLiquidity) OpDeadline() uint64 { return a.Deadline }

// RemoveLiquidity burns LP shares for a proportional withdrawal.
type RemoveLiquidity struct {
	LPBurn   *uint256.Int
	MinAOut  *uint256.Int
	MinBOut  *uint256.Int
	Deadline uint64
}

func (r RemoveLiquidity) Kind() OpKind       { return OpRemoveLiquidity }
func (r RemoveLiquidity) OpDeadline() uint64 { return r.Deadline }

// operationJSON is the envelope used when operations cross a file or wire
// boundary in the off-chain tooling.
type operationJSON struct {
	Kind          string `json:"kind"`
	AmountIn      string `json:"amount_in,omitempty"`
	DirectionAToB bool   `json:"direction_a_to_b,omitempty"`
	MinOut        string `json:"min_out,omitempty"`
	AmountA       string `json:"amount_a,omitempty"`
	AmountB       string `json:"amount_b,omitempty"`
	MinLPOut      string `json:"min_lp_out,omitempty"`
	LPBurn        string `json:"lp_burn,omitempty"`
	MinAOut       string `json:"min_a_out,omitempty"`
	MinBOut       string `json:"min_b_out,omitempty"`
	Deadline      uint64 `json:"deadline"`
}

// EncodeOperation marshals an operation into its JSON envelope.
func EncodeOperation(op Operation) ([]byte, error) {
	switch o := op.(type) {
	case Swap:
		return json.Marshal(operationJSON{
			Kind:          o.Kind().String(),
			AmountIn:      dec(o.AmountIn),
			DirectionAToB: o.DirectionAToB,
			MinOut:        dec(o.MinOut),
			Deadline:      o.Deadline,
		})
	case AddLiquidity:
		return json.Marshal(operationJSON{
			Kind:     o.Kind().String(),
			AmountA:  dec(o.AmountA),
			AmountB:  dec(o.AmountB),
			MinLPOut: dec(o.MinLPOut),
			Deadline: o.Deadline,
		})
	case RemoveLiquidity:
		return json.Marshal(operationJSON{
			Kind:     o.Kind().String(),
			LPBurn:   dec(o.LPBurn),
			MinAOut:  dec(o.MinAOut),
			MinBOut:  dec(o.MinBOut),
			Deadline: o.Deadline,
		})
	default:
		return nil, fmt.Errorf("unknown operation type %T", op)
	}
}

// DecodeOperation parses the JSON envelope back into a typed operation.
func DecodeOperation(data []byte) (Operation, error) {
	var raw operationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Kind {
	case OpSwap.String():
		amountIn, err := parseAmount(raw.AmountIn)
		if err != nil {
			return nil, fmt.Errorf("amount_in: %w", err)
		}
		minOut, err := parseAmount(raw.MinOut)
		if err != nil {
			return nil, fmt.Errorf("min_out: %w", err)
		}
		return Swap{AmountIn: amountIn, DirectionAToB: raw.DirectionAToB, MinOut: minOut, Deadline: raw.Deadline}, nil
	case OpAddLiquidity.String():
		amountA, err := parseAmount(raw.AmountA)
		if err != nil {
			return nil, fmt.Errorf("amount_a: %w", err)
		}
		amountB, err := parseAmount(raw.AmountB)
		if err != nil {
			return nil, fmt.Errorf("amount_b: %w", err)
		}
		minLP, err := parseAmount(raw.MinLPOut)
		if err != nil {
			return nil, fmt.Errorf("min_lp_out: %w", err)
		}
		return AddLiquidity{AmountA: amountA, AmountB: amountB, MinLPOut: minLP, Deadline: raw.Deadline}, nil
	case OpRemoveLiquidity.String():
		lpBurn, err := parseAmount(raw.LPBurn)
		if err != nil {
			return nil, fmt.Errorf("lp_burn: %w", err)
		}
		minA, err := parseAmount(raw.MinAOut)
		if err != nil {
			return nil, fmt.Errorf("min_a_out: %w", err)
		}
		minB, err := parseAmount(raw.MinBOut)
		if err != nil {
			return nil, fmt.Errorf("min_b_out: %w", err)
		}
		return RemoveLiquidity{LPBurn: lpBurn, MinAOut: minA, MinBOut: minB, Deadline: raw.Deadline}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", raw.Kind)
	}
}

func dec(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.Dec()
}
