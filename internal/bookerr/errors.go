// Package bookerr defines the structural error kinds raised by the
// orderbook engine. Each kind is its own type so callers can
// errors.As() into the fields they need instead of parsing messages.
package bookerr

import "fmt"

// InvalidPairError is returned when a denom pair has no registered
// orderbook, or a pair is registered twice.
type InvalidPairError struct {
	QuoteDenom string
	BaseDenom  string
}

func (e InvalidPairError) Error() string {
	return fmt.Sprintf("invalid pair: quote %q base %q", e.QuoteDenom, e.BaseDenom)
}

// InvalidBookIDError is returned when a book ID has no registered
// orderbook.
type InvalidBookIDError struct {
	BookID uint64
}

func (e InvalidBookIDError) Error() string {
	return fmt.Sprintf("invalid book id %d", e.BookID)
}

// InvalidTickIDError is returned when a tick ID falls outside
// [MinTick, MaxTick].
type InvalidTickIDError struct {
	TickID int64
}

func (e InvalidTickIDError) Error() string {
	return fmt.Sprintf("invalid tick id %d", e.TickID)
}

// InvalidQuantityError is returned when an order quantity is zero or
// negative.
type InvalidQuantityError struct {
	Quantity string
}

func (e InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %s", e.Quantity)
}

// InvalidClaimBountyError is returned when a requested claim bounty
// is outside [0, 1].
type InvalidClaimBountyError struct {
	ClaimBounty string
}

func (e InvalidClaimBountyError) Error() string {
	return fmt.Sprintf("invalid claim bounty: %s", e.ClaimBounty)
}

// InvalidSwapError mirrors the sudo-level swap validation failures:
// slippage bound violations and denom mismatches.
type InvalidSwapError struct {
	Reason string
}

func (e InvalidSwapError) Error() string {
	return fmt.Sprintf("invalid swap: %s", e.Reason)
}

// ExceededMaxSwapError formats identically to the original contract's
// slippage-bound message.
func ExceededMaxSwapError(maxAmount, received string) InvalidSwapError {
	return InvalidSwapError{Reason: fmt.Sprintf("Exceeded max swap amount: expected %s received %s", maxAmount, received)}
}

// UnmetMinSwapError formats identically to the original contract's
// minimum-output message.
func UnmetMinSwapError(minAmount, received string) InvalidSwapError {
	return InvalidSwapError{Reason: fmt.Sprintf("Did not meet minimum swap amount: expected %s received %s", minAmount, received)}
}

// IncorrectDenomError formats identically to the original contract's
// denom-mismatch message.
func IncorrectDenomError(expected, received string) InvalidSwapError {
	return InvalidSwapError{Reason: fmt.Sprintf("Incorrect denom: expected %s received %s", expected, received)}
}

// UnauthorizedError is returned when an order is cancelled by someone
// other than its owner. Claims are open to any caller.
type UnauthorizedError struct {
	Owner    string
	Attacker string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: order owned by %q, attempted by %q", e.Owner, e.Attacker)
}

// PaymentError is returned when the payment attached to a new order
// has the wrong denom or an amount other than the declared quantity.
type PaymentError struct {
	Reason string
}

func (e PaymentError) Error() string {
	return fmt.Sprintf("payment error: %s", e.Reason)
}

// OrderNotFoundError is returned when an order ID has no record at a
// given book and tick.
type OrderNotFoundError struct {
	BookID  uint64
	OrderID uint64
}

func (e OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %d not found in book %d", e.OrderID, e.BookID)
}

// ZeroClaimError is returned when claim_order is called but the
// order's claimable amount is currently zero.
type ZeroClaimError struct {
	OrderID uint64
}

func (e ZeroClaimError) Error() string {
	return fmt.Sprintf("order %d has nothing claimable", e.OrderID)
}

// InvalidNodeTypeError is returned when a sum-tree operation is given
// a node of the wrong kind (a leaf where an internal node is needed,
// or the reverse), when a rotation lacks the child it rotates up, or
// when a node cannot be reloaded from the store.
type InvalidNodeTypeError struct {
	NodeID uint64
	Tag    uint8
}

func (e InvalidNodeTypeError) Error() string {
	return fmt.Sprintf("sumtree node %d has invalid node type tag %d", e.NodeID, e.Tag)
}

// ChildlessInternalNodeError is returned when an internal sum-tree
// node is found with neither child set, which should be unreachable.
type ChildlessInternalNodeError struct {
	NodeID uint64
}

func (e ChildlessInternalNodeError) Error() string {
	return fmt.Sprintf("internal sumtree node %d has no children", e.NodeID)
}
