// Package tickmath implements the pure, deterministic tick-to-price
// bijection the orderbook engine prices every order against. Ticks are
// signed integers; price 1 sits at tick 0, price rises with the tick
// and falls below 1 for negative ticks, and each band of fixed width
// spans one power of ten so that relative precision stays constant
// from band to band.
package tickmath

import (
	"github.com/osmosis-labs/osmosis/osmomath"

	"tickbook/internal/bookerr"
)

const (
	// MinTick and MaxTick bound the legal tick range. Orders, claims
	// and the tick-bound sweep parameter of a market order must stay
	// inside this window.
	MinTick int64 = -108_000_000
	MaxTick int64 = 182_000_000

	// exponentAtPriceOne is the base-ten exponent of the per-tick
	// additive increment at tick 0.
	exponentAtPriceOne int64 = -6

	// ticksPerBand is the number of ticks spanned by one exponent
	// band (one order of magnitude of price).
	ticksPerBand int64 = 9_000_000
)

var (
	ten    = osmomath.NewBigDec(10)
	oneDec = osmomath.OneBigDec()
)

// TickToPrice maps a tick index to its price. It is a strict
// bijection on [MinTick, MaxTick]: price is monotonically increasing
// in tick, and price(0) == 1.
func TickToPrice(tick int64) (osmomath.BigDec, error) {
	if tick < MinTick || tick > MaxTick {
		return osmomath.BigDec{}, bookerr.InvalidTickIDError{TickID: tick}
	}
	if tick == 0 {
		return oneDec, nil
	}

	bandsFromOne := floorDiv(tick, ticksPerBand)
	exponentAtTick := exponentAtPriceOne + bandsFromOne
	additiveTicksIntoBand := tick - bandsFromOne*ticksPerBand

	bandBase := powTen(bandsFromOne)
	additiveIncrement := powTen(exponentAtTick)
	offset := osmomath.NewBigDec(additiveTicksIntoBand).MulMut(additiveIncrement)

	return bandBase.AddMut(offset), nil
}

// PriceToTick is the inverse of TickToPrice, returning the smallest
// tick whose price is >= the given price. It is used to translate a
// swap's counter-asset price bound into a tick bound.
func PriceToTick(price osmomath.BigDec) (int64, error) {
	if !price.IsPositive() {
		return 0, bookerr.InvalidSwapError{Reason: "price must be positive"}
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := floorDiv(lo+hi, 2)
		midPrice, err := TickToPrice(mid)
		if err != nil {
			return 0, err
		}
		if midPrice.LT(price) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// powTen returns 10^exp as a BigDec, for any signed exponent.
func powTen(exp int64) osmomath.BigDec {
	if exp >= 0 {
		return ten.PowerInteger(uint64(exp))
	}
	return oneDec.Quo(ten.PowerInteger(uint64(-exp)))
}
