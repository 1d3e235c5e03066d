package quote

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolCore/internal/engine"
	"poolCore/internal/model"
)

// Quote is a fully built transition candidate: the operation, the prior
// state it was computed against, the proposed next state, and the
// user-visible amounts. Every quote is advisory; the prior state may be
// superseded before submission.
type Quote struct {
	Op       model.Operation
	Prior    model.PoolState
	Proposed model.PoolState
	Sizes    engine.OutputSizes

	// Exactly one group is set, matching Op's kind.
	AmountOut  *uint256.Int
	LPMinted   *uint256.Int
	AmountAOut *uint256.Int
	AmountBOut *uint256.Int
}

// Receipt converts the quote into its persistence record.
func (q Quote) Receipt() model.QuoteReceipt {
	receipt := model.QuoteReceipt{
		PoolVersion: q.Prior.Version,
		OpKind:      q.Op.Kind().String(),
	}
	if q.AmountOut != nil {
		receipt.AmountOut = q.AmountOut.Dec()
	}
	if q.LPMinted != nil {
		receipt.LPMinted = q.LPMinted.Dec()
	}
	if q.AmountAOut != nil {
		receipt.AmountAOut = q.AmountAOut.Dec()
	}
	if q.AmountBOut != nil {
		receipt.AmountBOut = q.AmountBOut.Dec()
	}
	return receipt
}

// Builder computes transition candidates the validator will accept. It holds
// no pool state of its own: every call takes an explicit snapshot, so a
// stale snapshot surfaces as an explicit error at revalidation rather than a
// silently wrong quote.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Swap builds a swap candidate against the given snapshot.
func (b *Builder) Swap(state model.PoolState, op model.Swap, currentTime uint64) (Quote, error) {
	sq, err := engine.QuoteSwap(state, op.AmountIn, op.DirectionAToB)
	if err != nil {
		return Quote{}, err
	}

	proposed := nextState(state)
	proposed.ReserveA = sq.NewReserveA
	proposed.ReserveB = sq.NewReserveB

	q := Quote{Op: op, Prior: state, Proposed: proposed, AmountOut: sq.AmountOut}
	if err := b.finalize(&q, currentTime); err != nil {
		return Quote{}, err
	}

	b.logger.Debug("swap quoted",
		zap.Uint64("pool_version", state.Version),
		zap.String("amount_in", op.AmountIn.Dec()),
		zap.String("amount_out", sq.AmountOut.Dec()),
		zap.Bool("a_to_b", op.DirectionAToB))
	return q, nil
}

// AddLiquidity builds a deposit candidate. The builder pre-balances nothing:
// callers should deposit at the current reserve ratio, but an unbalanced
// deposit still yields a valid (if unfavorable) candidate.
func (b *Builder) AddLiquidity(state model.PoolState, op model.AddLiquidity, currentTime uint64) (Quote, error) {
	aq, err := engine.QuoteAddLiquidity(state, op.AmountA, op.AmountB)
	if err != nil {
		return Quote{}, err
	}

	proposed := nextState(state)
	proposed.ReserveA = aq.NewReserveA
	proposed.ReserveB = aq.NewReserveB
	proposed.LPSupply = new(uint256.Int).Add(state.LPSupply, aq.LPMinted)

	q := Quote{Op: op, Prior: state, Proposed: proposed, LPMinted: aq.LPMinted}
	if err := b.finalize(&q, currentTime); err != nil {
		return Quote{}, err
	}

	b.logger.Debug("deposit quoted",
		zap.Uint64("pool_version", state.Version),
		zap.String("lp_minted", aq.LPMinted.Dec()))
	return q, nil
}

// RemoveLiquidity builds a withdrawal candidate.
func (b *Builder) RemoveLiquidity(state model.PoolState, op model.RemoveLiquidity, currentTime uint64) (Quote, error) {
	rq, err := engine.QuoteRemoveLiquidity(state, op.LPBurn)
	if err != nil {
		return Quote{}, err
	}

	proposed := nextState(state)
	proposed.ReserveA = rq.NewReserveA
	proposed.ReserveB = rq.NewReserveB
	proposed.LPSupply = new(uint256.Int).Sub(state.LPSupply, op.LPBurn)

	q := Quote{Op: op, Prior: state, Proposed: proposed, AmountAOut: rq.AmountAOut, AmountBOut: rq.AmountBOut}
	if err := b.finalize(&q, currentTime); err != nil {
		return Quote{}, err
	}

	b.logger.Debug("withdrawal quoted",
		zap.Uint64("pool_version", state.Version),
		zap.String("lp_burn", op.LPBurn.Dec()))
	return q, nil
}

// Revalidate re-checks a quote against the latest known snapshot immediately
// before submission. A superseded prior state is reported as stale; callers
// should re-quote and retry.
func (b *Builder) Revalidate(latest model.PoolState, q Quote) error {
	if latest.Version != q.Prior.Version {
		return fmt.Errorf("%w: quoted against version %d, latest is %d",
			engine.ErrStaleState, q.Prior.Version, latest.Version)
	}
	if !latest.Equal(q.Prior) {
		return fmt.Errorf("%w: snapshot diverged at version %d", engine.ErrStaleState, latest.Version)
	}
	return nil
}

// finalize measures the proposed record and runs the candidate through the
// validator, so a returned quote is one the ledger boundary will accept.
func (b *Builder) finalize(q *Quote, currentTime uint64) error {
	size, err := q.Proposed.EncodedSize()
	if err != nil {
		return fmt.Errorf("measure proposed state: %w", err)
	}
	q.Sizes = engine.OutputSizes{PoolOutput: size}

	if err := engine.ValidateTransition(q.Prior, q.Op, q.Proposed, currentTime, q.Sizes); err != nil {
		return fmt.Errorf("candidate rejected: %w", err)
	}
	return nil
}

func nextState(state model.PoolState) model.PoolState {
	out := state.Clone()
	out.Version = state.Version + 1
	return out
}
