package engine

import (
	"cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"tickbook/internal/bookerr"
	"tickbook/internal/tickmath"
)

// MarketOrder is the mutable input to RunMarketOrder, per spec.md
// §4.4: InputAmount is decremented tick by tick as the sweep drains
// resting liquidity.
type MarketOrder struct {
	Direction   Direction
	Owner       string
	InputAmount math.Int
}

// validateTickBound checks spec.md §4.4's tick-bound direction rule:
// a Bid sweeps upward from next_ask_tick, so the bound must be no
// lower than it; an Ask sweeps downward from next_bid_tick, so the
// bound must be no higher.
func validateTickBound(header OrderbookHeader, direction Direction, tickBound int64) error {
	if direction == Bid && tickBound < header.NextAskTick {
		return bookerr.InvalidTickIDError{TickID: tickBound}
	}
	if direction == Ask && tickBound > header.NextBidTick {
		return bookerr.InvalidTickIDError{TickID: tickBound}
	}
	return nil
}

// frontierTick returns the book's current starting tick for a sweep
// in the given direction.
func frontierTick(header OrderbookHeader, direction Direction) int64 {
	if direction == Bid {
		return header.NextAskTick
	}
	return header.NextBidTick
}

// pastBound reports whether the sweep has moved past tickBound.
func pastBound(direction Direction, tickID, tickBound int64) bool {
	if direction == Bid {
		return tickID > tickBound
	}
	return tickID < tickBound
}

// RunMarketOrder implements spec.md §4.4: it sweeps ticks starting at
// the book's frontier in the order's direction, draining resting
// liquidity on the opposite side tick by tick, until the order's
// input is exhausted or the sweep passes tickBound. It returns the
// total output and a transfer intent paying it to the order's owner.
func (e *Engine) RunMarketOrder(bookID uint64, order *MarketOrder, tickBound int64) (math.Int, TransferIntent, error) {
	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	if err := validateTickBound(header, order.Direction, tickBound); err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}

	resting := order.Direction.Opposite()
	output := math.ZeroInt()

	for order.InputAmount.IsPositive() {
		tickID := frontierTick(header, order.Direction)
		if isEmptySentinel(tickID) || pastBound(order.Direction, tickID, tickBound) {
			break
		}

		values, err := syncTickState(e.Store, bookID, tickID, resting)
		if err != nil {
			return math.ZeroInt(), TransferIntent{}, err
		}
		available := values.TotalAmountOfLiquidity

		price, err := tickmath.TickToPrice(tickID)
		if err != nil {
			return math.ZeroInt(), TransferIntent{}, err
		}

		potentialOut := convertToOutput(order.InputAmount, price, order.Direction)
		if potentialOut.LTE(available) {
			values.EffectiveTotalAmountSwapped = values.EffectiveTotalAmountSwapped.Add(potentialOut)
			values.TotalAmountOfLiquidity = values.TotalAmountOfLiquidity.Sub(potentialOut)
			output = output.Add(potentialOut)
			order.InputAmount = math.ZeroInt()
			e.commitTickValues(bookID, tickID, resting, values)
			e.advancePointer(&header, resting)
			break
		}

		consumedInput := convertToInputCeil(available, price, order.Direction)
		if consumedInput.GT(order.InputAmount) {
			consumedInput = order.InputAmount
		}
		order.InputAmount = order.InputAmount.Sub(consumedInput)
		values.EffectiveTotalAmountSwapped = values.EffectiveTotalAmountSwapped.Add(available)
		values.TotalAmountOfLiquidity = math.ZeroInt()
		output = output.Add(available)
		e.commitTickValues(bookID, tickID, resting, values)
		e.advancePointer(&header, resting)
	}

	saveOrderbookHeader(e.Store, header)

	denom := inputDenom(header, resting)
	log.Debug().
		Uint64("book_id", bookID).
		Str("direction", string(order.Direction)).
		Str("output", output.String()).
		Msg("ran market order")

	return output, TransferIntent{Recipient: order.Owner, Denom: denom, Amount: output}, nil
}

// commitTickValues persists a tick's just-updated TickValues for one
// side and keeps the frontier index in sync with its liquidity.
func (e *Engine) commitTickValues(bookID uint64, tickID int64, direction Direction, values TickValues) {
	ts := loadTickState(e.Store, bookID, tickID)
	ts.setValues(direction, values)
	saveTickState(e.Store, bookID, tickID, ts)
	e.noteTickLiquidity(bookID, tickID, direction, values.TotalAmountOfLiquidity)
}

func isEmptySentinel(tickID int64) bool {
	return tickID == emptyAskTick || tickID == emptyBidTick
}

// SwapExactIn implements the swap-exact-in variant of run_market_order
// (spec.md §6): direction is inferred from the denom pair, fee must
// equal the configured policy (currently always zero), and the swept
// output must meet minOut.
func (e *Engine) SwapExactIn(bookID uint64, owner, tokenInDenom string, tokenInAmount math.Int, tokenOutDenom string, minOut math.Int, fee math.LegacyDec) (math.Int, TransferIntent, error) {
	if err := e.checkFee(fee); err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	direction, err := directionFor(header, tokenInDenom, tokenOutDenom)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}

	tickBound := tickmath.MaxTick
	if direction == Ask {
		tickBound = tickmath.MinTick
	}

	order := &MarketOrder{Direction: direction, Owner: owner, InputAmount: tokenInAmount}
	output, intent, err := e.RunMarketOrder(bookID, order, tickBound)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	if output.LT(minOut) {
		return math.ZeroInt(), TransferIntent{}, bookerr.UnmetMinSwapError(minOut.String(), output.String())
	}
	return output, intent, nil
}

// SwapExactOut implements the swap-exact-out variant of
// run_market_order (spec.md §6): sweeps just enough resting liquidity
// to produce exactly tokenOutAmount, bounded by maxIn.
func (e *Engine) SwapExactOut(bookID uint64, owner, tokenOutDenom string, tokenOutAmount math.Int, tokenInDenom string, maxIn math.Int, fee math.LegacyDec) (math.Int, TransferIntent, error) {
	if err := e.checkFee(fee); err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}
	direction, err := directionFor(header, tokenInDenom, tokenOutDenom)
	if err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}

	tickBound := tickmath.MaxTick
	if direction == Ask {
		tickBound = tickmath.MinTick
	}
	if err := validateTickBound(header, direction, tickBound); err != nil {
		return math.ZeroInt(), TransferIntent{}, err
	}

	resting := direction.Opposite()
	remainingOut := tokenOutAmount
	totalInput := math.ZeroInt()

	for remainingOut.IsPositive() {
		tickID := frontierTick(header, direction)
		if isEmptySentinel(tickID) || pastBound(direction, tickID, tickBound) {
			break
		}

		values, err := syncTickState(e.Store, bookID, tickID, resting)
		if err != nil {
			return math.ZeroInt(), TransferIntent{}, err
		}
		available := values.TotalAmountOfLiquidity

		price, err := tickmath.TickToPrice(tickID)
		if err != nil {
			return math.ZeroInt(), TransferIntent{}, err
		}

		if remainingOut.LTE(available) {
			consumedInput := convertToInputCeil(remainingOut, price, direction)
			if totalInput.Add(consumedInput).GT(maxIn) {
				return math.ZeroInt(), TransferIntent{}, bookerr.ExceededMaxSwapError(maxIn.String(), totalInput.Add(consumedInput).String())
			}
			totalInput = totalInput.Add(consumedInput)
			values.EffectiveTotalAmountSwapped = values.EffectiveTotalAmountSwapped.Add(remainingOut)
			values.TotalAmountOfLiquidity = values.TotalAmountOfLiquidity.Sub(remainingOut)
			remainingOut = math.ZeroInt()
			e.commitTickValues(bookID, tickID, resting, values)
			e.advancePointer(&header, resting)
			break
		}

		consumedInput := convertToInputCeil(available, price, direction)
		if totalInput.Add(consumedInput).GT(maxIn) {
			return math.ZeroInt(), TransferIntent{}, bookerr.ExceededMaxSwapError(maxIn.String(), totalInput.Add(consumedInput).String())
		}
		totalInput = totalInput.Add(consumedInput)
		remainingOut = remainingOut.Sub(available)
		values.EffectiveTotalAmountSwapped = values.EffectiveTotalAmountSwapped.Add(available)
		values.TotalAmountOfLiquidity = math.ZeroInt()
		e.commitTickValues(bookID, tickID, resting, values)
		e.advancePointer(&header, resting)
	}

	saveOrderbookHeader(e.Store, header)

	if remainingOut.IsPositive() {
		return math.ZeroInt(), TransferIntent{}, bookerr.InvalidSwapError{Reason: "insufficient resting liquidity to fill requested output"}
	}

	return totalInput, TransferIntent{Recipient: owner, Denom: inputDenom(header, resting), Amount: tokenOutAmount}, nil
}

// checkFee enforces spec.md §1/§6: the swap fee must equal the
// configured policy constant, which the contract currently pins to
// zero.
func (e *Engine) checkFee(fee math.LegacyDec) error {
	want, err := math.LegacyNewDecFromStr(e.Config.SwapFee)
	if err != nil {
		return bookerr.InvalidSwapError{Reason: "invalid configured swap fee"}
	}
	if !fee.Equal(want) {
		return bookerr.InvalidSwapError{Reason: "swap fee must equal the configured policy constant"}
	}
	return nil
}
