package engine

import "cosmossdk.io/math"

// claimableSince computes how much of an order's span — starting at
// etas, the order's current queue position — the tick's fill
// progress has actually reached. cancelledAhead is the sum-tree's
// prefix sum at etas: the total value of cancellations that occurred
// strictly before this position, which the tick's ETAS counter never
// advanced past in real terms (a cancellation removes its order's
// remaining span from the queue before the sweep gets to it, so the
// sweep's real progress needs crediting back to whatever sits behind
// the gap). The result is not clamped to the order's remaining
// quantity; callers do that, since the same computation is shared by
// claim (bounded by O.Quantity) and cancel (bounded the same way, to
// find how much of the order the sweep already reached before it's
// removed from the book).
func claimableSince(values TickValues, etas, cancelledAhead math.Int) math.Int {
	progress := values.EffectiveTotalAmountSwapped.Sub(etas).Add(cancelledAhead)
	if progress.IsNegative() {
		return math.ZeroInt()
	}
	return progress
}
