package engine

import (
	"github.com/rs/zerolog/log"

	"tickbook/internal/bookerr"
	"tickbook/internal/sumtree"
)

// CancelOrder implements spec.md §4.6: removes a resting order,
// records its unfilled tail as a sum-tree cancellation leaf so later
// claims on orders queued behind it are not shortchanged, and returns
// a refund transfer intent in the order's original input denom.
func (e *Engine) CancelOrder(bookID uint64, tickID int64, orderID uint64, caller string) (TransferIntent, error) {
	order, err := loadOrder(e.Store, bookID, tickID, orderID)
	if err != nil {
		return TransferIntent{}, err
	}
	if order.Owner != caller {
		return TransferIntent{}, bookerr.UnauthorizedError{Owner: order.Owner, Attacker: caller}
	}

	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return TransferIntent{}, err
	}

	values, err := syncTickState(e.Store, bookID, tickID, order.Direction)
	if err != nil {
		return TransferIntent{}, err
	}

	// The tick's ETAS may have swept past this order's position already
	// without the owner claiming yet. That portion is forfeit on
	// cancellation (it already paid out to whoever executed the sweep);
	// only the genuinely still-open tail is refunded and recorded as a
	// cancellation, positioned right after the reached portion so that
	// orders queued behind this one are not blamed for it.
	tree := sumtree.New(e.Store, bookID, tickID, string(order.Direction))
	cancelledAheadOfOrder, err := tree.PrefixSum(order.Etas)
	if err != nil {
		return TransferIntent{}, err
	}
	filledPrefix := claimableSince(values, order.Etas, cancelledAheadOfOrder)
	if filledPrefix.GT(order.Quantity) {
		filledPrefix = order.Quantity
	}
	unfilled := order.Quantity.Sub(filledPrefix)

	if err := tree.Insert(order.Etas.Add(filledPrefix), unfilled); err != nil {
		return TransferIntent{}, err
	}

	values.TotalAmountOfLiquidity = values.TotalAmountOfLiquidity.Sub(unfilled)
	ts := loadTickState(e.Store, bookID, tickID)
	ts.setValues(order.Direction, values)
	saveTickState(e.Store, bookID, tickID, ts)

	e.noteTickLiquidity(bookID, tickID, order.Direction, values.TotalAmountOfLiquidity)
	saveOrderbookHeader(e.Store, header)

	deleteOrder(e.Store, bookID, tickID, orderID)

	log.Debug().
		Uint64("book_id", bookID).
		Int64("tick_id", tickID).
		Uint64("order_id", orderID).
		Str("refund", unfilled.String()).
		Msg("cancelled order")

	return TransferIntent{
		Recipient: order.Owner,
		Denom:     inputDenom(header, order.Direction),
		Amount:    unfilled,
	}, nil
}
