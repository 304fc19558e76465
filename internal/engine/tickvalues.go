package engine

import (
	"cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"tickbook/internal/store"
	"tickbook/internal/sumtree"
)

// TickValues are the per-(tick, direction) counters that drive both
// liquidity accounting and claim math.
type TickValues struct {
	CumulativeTotalValue        math.Int
	EffectiveTotalAmountSwapped math.Int
	TotalAmountOfLiquidity      math.Int
	CumulativeRealizedCancels   math.Int
	LastTickSyncEtas            math.Int
}

func zeroTickValues() TickValues {
	return TickValues{
		CumulativeTotalValue:        math.ZeroInt(),
		EffectiveTotalAmountSwapped: math.ZeroInt(),
		TotalAmountOfLiquidity:      math.ZeroInt(),
		CumulativeRealizedCancels:   math.ZeroInt(),
		LastTickSyncEtas:            math.ZeroInt(),
	}
}

// TickState holds both sides' TickValues for one tick; a tick can
// carry resting liquidity on both sides at once if the frontier has
// passed over it and come back.
type TickState struct {
	BidValues TickValues
	AskValues TickValues
}

func loadTickState(s *store.Store, bookID uint64, tickID int64) TickState {
	ts, ok := store.Get[TickState](s, store.TickStateKey(bookID, tickID))
	if !ok {
		return TickState{BidValues: zeroTickValues(), AskValues: zeroTickValues()}
	}
	return ts
}

func saveTickState(s *store.Store, bookID uint64, tickID int64, ts TickState) {
	store.Set(s, store.TickStateKey(bookID, tickID), ts)
}

// getValues returns the TickValues for the requested side.
func (ts TickState) getValues(direction Direction) TickValues {
	if direction == Bid {
		return ts.BidValues
	}
	return ts.AskValues
}

func (ts *TickState) setValues(direction Direction, v TickValues) {
	if direction == Bid {
		ts.BidValues = v
	} else {
		ts.AskValues = v
	}
}

// syncTickState refreshes a tick's audit fields against its
// sum-tree: cumulative_realized_cancels becomes the prefix sum of
// cancellation leaves strictly before the current ETAS, recording how
// much of the tick's cancelled liquidity the sweep has now passed.
//
// total_amount_of_liquidity is deliberately left untouched here. It
// is tracked directly and incrementally by PlaceLimit, CancelOrder
// and RunMarketOrder, each of which knows exactly how much real,
// still-open liquidity it is adding or removing. Re-deriving it from
// cumulative_total_value - ETAS - cumulative_realized_cancels would
// only be correct once ETAS has swept past every cancellation ahead
// of it; recomputing it here on every sync would let a cancellation
// that hasn't yet been passed look like it was never removed,
// transiently overstating how much a market order can actually buy.
// The equation still holds as an invariant once ETAS does reach that
// point — this function just doesn't need to enforce it early.
func syncTickState(s *store.Store, bookID uint64, tickID int64, direction Direction) (TickValues, error) {
	ts := loadTickState(s, bookID, tickID)
	values := ts.getValues(direction)

	tree := sumtree.New(s, bookID, tickID, string(direction))
	realizedCancels, err := tree.PrefixSum(values.EffectiveTotalAmountSwapped)
	if err != nil {
		return TickValues{}, err
	}

	values.CumulativeRealizedCancels = realizedCancels
	values.LastTickSyncEtas = values.EffectiveTotalAmountSwapped

	ts.setValues(direction, values)
	saveTickState(s, bookID, tickID, ts)

	log.Debug().
		Uint64("book_id", bookID).
		Int64("tick_id", tickID).
		Str("direction", string(direction)).
		Str("liquidity", values.TotalAmountOfLiquidity.String()).
		Msg("synced tick state")

	return values, nil
}
