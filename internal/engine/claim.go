package engine

import (
	"github.com/rs/zerolog/log"

	"tickbook/internal/bookerr"
	"tickbook/internal/sumtree"
	"tickbook/internal/tickmath"
)

// outputDenom returns the denom an order of the given direction pays
// out on claim: the opposite side of its input denom.
func outputDenom(header OrderbookHeader, direction Direction) string {
	return inputDenom(header, direction.Opposite())
}

// ClaimOrder implements spec.md §4.7: computes the order's claimable
// fill since its last claim (discounting cancellations ahead of it in
// the queue via the sum-tree), pays out the owner (and, if configured
// and the caller isn't the owner, a bounty split to the invoker), and
// advances or closes the order.
func (e *Engine) ClaimOrder(bookID uint64, tickID int64, orderID uint64, caller string) ([]TransferIntent, error) {
	order, err := loadOrder(e.Store, bookID, tickID, orderID)
	if err != nil {
		return nil, err
	}

	header, err := loadOrderbookHeader(e.Store, bookID)
	if err != nil {
		return nil, err
	}

	values, err := syncTickState(e.Store, bookID, tickID, order.Direction)
	if err != nil {
		return nil, err
	}

	tree := sumtree.New(e.Store, bookID, tickID, string(order.Direction))
	cancelledAheadOfOrder, err := tree.PrefixSum(order.Etas)
	if err != nil {
		return nil, err
	}

	claimableInput := claimableSince(values, order.Etas, cancelledAheadOfOrder)
	if claimableInput.GT(order.Quantity) {
		claimableInput = order.Quantity
	}
	if claimableInput.IsZero() {
		return nil, bookerr.ZeroClaimError{OrderID: orderID}
	}

	price, err := tickmath.TickToPrice(tickID)
	if err != nil {
		return nil, err
	}
	output := convertToOutput(claimableInput, price, order.Direction)
	denom := outputDenom(header, order.Direction)

	intents := make([]TransferIntent, 0, 2)
	ownerAmount := output
	if order.ClaimBounty.IsPositive() && caller != order.Owner {
		bounty := output.ToLegacyDec().Mul(order.ClaimBounty).TruncateInt()
		if bounty.IsPositive() {
			ownerAmount = output.Sub(bounty)
			intents = append(intents, TransferIntent{Recipient: caller, Denom: denom, Amount: bounty})
		}
	}
	if ownerAmount.IsPositive() {
		intents = append(intents, TransferIntent{Recipient: order.Owner, Denom: denom, Amount: ownerAmount})
	}

	order.Quantity = order.Quantity.Sub(claimableInput)
	order.Etas = order.Etas.Add(claimableInput)
	if order.Quantity.IsZero() {
		deleteOrder(e.Store, bookID, tickID, orderID)
	} else {
		saveOrder(e.Store, order)
	}

	log.Debug().
		Uint64("book_id", bookID).
		Int64("tick_id", tickID).
		Uint64("order_id", orderID).
		Str("claimed_input", claimableInput.String()).
		Str("output", output.String()).
		Bool("closed", order.Quantity.IsZero()).
		Msg("claimed order")

	return intents, nil
}
