package engine

import (
	"cosmossdk.io/math"

	"tickbook/internal/bookerr"
	"tickbook/internal/store"
)

// LimitOrder is a single resting order, per spec.md §3. Quantity is
// the remaining unfilled input; Etas is the order's queue position on
// the effective-total-amount-swapped axis, advanced forward as the
// order is partially claimed.
type LimitOrder struct {
	BookID      uint64
	TickID      int64
	OrderID     uint64
	Direction   Direction
	Owner       string
	Quantity    math.Int
	Etas        math.Int
	ClaimBounty math.LegacyDec
}

func loadOrder(s *store.Store, bookID uint64, tickID int64, orderID uint64) (LimitOrder, error) {
	o, ok := store.Get[LimitOrder](s, store.OrderKey(bookID, tickID, orderID))
	if !ok {
		return LimitOrder{}, bookerr.OrderNotFoundError{BookID: bookID, OrderID: orderID}
	}
	return o, nil
}

func saveOrder(s *store.Store, o LimitOrder) {
	store.Set(s, store.OrderKey(o.BookID, o.TickID, o.OrderID), o)
}

func deleteOrder(s *store.Store, bookID uint64, tickID int64, orderID uint64) {
	s.Delete(store.OrderKey(bookID, tickID, orderID))
}

// nextOrderID assigns the next order_id for a (book, tick) pair, per
// spec.md §4.5 step 2.
func nextOrderID(s *store.Store, bookID uint64, tickID int64) uint64 {
	return store.NextSequence(s, store.OrderIDCounterKey(bookID, tickID)) - 1
}
