// Package engine implements the tick/sum-tree orderbook: order
// placement, cancellation, claim accounting and the market-order
// sweep, all addressed against the typed store and the per-tick
// sum-tree.
package engine

import (
	"cosmossdk.io/math"
	"github.com/osmosis-labs/osmosis/osmomath"
)

// Direction is the side of an order or a tick's liquidity: a bid
// offers quote for base, an ask offers base for quote.
type Direction string

const (
	Bid Direction = "bid"
	Ask Direction = "ask"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Bid {
		return Ask
	}
	return Bid
}

// TransferIntent is a value describing a payment the core wants made;
// emitting it is the host's responsibility, not this package's.
type TransferIntent struct {
	Recipient string
	Denom     string
	Amount    math.Int
}

// convertToOutput converts an amount in the order's input denom to
// the equivalent amount in its output denom at the given tick price.
// Bid orders pay quote and receive base (multiply); ask orders pay
// base and receive quote (divide). The conversion always truncates
// toward zero, keeping the remainder with the book.
func convertToOutput(amount math.Int, price osmomath.BigDec, direction Direction) math.Int {
	bd := osmomath.BigDecFromSDKInt(amount)
	var result osmomath.BigDec
	switch direction {
	case Bid:
		result = bd.Mul(price)
	case Ask:
		result = bd.Quo(price)
	}
	return result.Dec().TruncateInt()
}

// convertToInput is the inverse of convertToOutput: given an amount
// already expressed in the output denom, it returns how much input
// that amount corresponds to at the given price.
func convertToInput(amount math.Int, price osmomath.BigDec, direction Direction) math.Int {
	bd := osmomath.BigDecFromSDKInt(amount)
	var result osmomath.BigDec
	switch direction {
	case Bid:
		result = bd.Quo(price)
	case Ask:
		result = bd.Mul(price)
	}
	return result.Dec().TruncateInt()
}

// convertToInputCeil is convertToInput rounded toward the book's
// favor instead of toward zero: used when a market sweep fully drains
// a tick's resting liquidity, so the taker is never charged less input
// than that liquidity is actually worth.
func convertToInputCeil(amount math.Int, price osmomath.BigDec, direction Direction) math.Int {
	floor := convertToInput(amount, price, direction)
	if convertToOutput(floor, price, direction).LT(amount) {
		floor = floor.Add(math.OneInt())
	}
	return floor
}
