package engine

import (
	"cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"tickbook/internal/bookerr"
	"tickbook/internal/tickmath"
)

// inputDenom returns the denom an order of the given direction must
// be paid in: a bid pays quote, an ask pays base.
func inputDenom(header OrderbookHeader, direction Direction) string {
	if direction == Bid {
		return header.QuoteDenom
	}
	return header.BaseDenom
}

// PlaceLimit implements spec.md §4.5: validates and persists a new
// resting order, advances the tick's cumulative value and liquidity,
// and widens the book's frontier pointer if the order improves it.
func (e *Engine) PlaceLimit(bookID uint64, tickID int64, direction Direction, owner string, quantity math.Int, claimBounty math.LegacyDec, paidDenom string, paidAmount math.Int) (uint64, error) {
	if tickID < tickmath.MinTick || tickID > tickmath.MaxTick {
		return 0, bookerr.InvalidTickIDError{TickID: tickID}
	}
	if !quantity.IsPositive() {
		return 0, bookerr.InvalidQuantityError{Quantity: quantity.String()}
	}
	if claimBounty.IsNegative() || claimBounty.GT(math.LegacyOneDec()) {
		return 0, bookerr.InvalidClaimBountyError{ClaimBounty: claimBounty.String()}
	}

	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return 0, err
	}

	if wantDenom := inputDenom(header, direction); paidDenom != wantDenom {
		return 0, bookerr.PaymentError{Reason: "paid denom " + paidDenom + " does not match expected " + wantDenom}
	}
	if !paidAmount.Equal(quantity) {
		return 0, bookerr.PaymentError{Reason: "paid amount does not match declared quantity"}
	}

	values, err := syncTickState(e.Store, bookID, tickID, direction)
	if err != nil {
		return 0, err
	}

	orderID := nextOrderID(e.Store, bookID, tickID)
	order := LimitOrder{
		BookID:      bookID,
		TickID:      tickID,
		OrderID:     orderID,
		Direction:   direction,
		Owner:       owner,
		Quantity:    quantity,
		Etas:        values.CumulativeTotalValue,
		ClaimBounty: claimBounty,
	}
	saveOrder(e.Store, order)

	values.CumulativeTotalValue = values.CumulativeTotalValue.Add(quantity)
	values.TotalAmountOfLiquidity = values.TotalAmountOfLiquidity.Add(quantity)
	ts := loadTickState(e.Store, bookID, tickID)
	ts.setValues(direction, values)
	saveTickState(e.Store, bookID, tickID, ts)

	e.noteTickLiquidity(bookID, tickID, direction, values.TotalAmountOfLiquidity)
	improvePointer(&header, direction, tickID)
	saveOrderbookHeader(e.Store, header)

	log.Debug().
		Uint64("book_id", bookID).
		Int64("tick_id", tickID).
		Str("direction", string(direction)).
		Uint64("order_id", orderID).
		Str("quantity", quantity.String()).
		Msg("placed limit order")

	return orderID, nil
}
