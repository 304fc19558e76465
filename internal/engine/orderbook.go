package engine

import (
	"github.com/rs/zerolog/log"

	"tickbook/internal/bookerr"
	"tickbook/internal/store"
	"tickbook/internal/tickmath"
)

// Sentinel frontier values for a book with no resting liquidity on a
// side, one step past the legal tick range so every real tick
// compares inside the bound.
const (
	emptyAskTick = tickmath.MaxTick + 1
	emptyBidTick = tickmath.MinTick - 1
)

// OrderbookHeader is the per-book record of spec.md §3: the denom
// pair and the two monotone frontier pointers.
type OrderbookHeader struct {
	BookID      uint64
	QuoteDenom  string
	BaseDenom   string
	NextAskTick int64
	NextBidTick int64
}

func loadOrderbookHeader(s *store.Store, bookID uint64) (OrderbookHeader, error) {
	h, ok := store.Get[OrderbookHeader](s, store.OrderbookKey(bookID))
	if !ok {
		return OrderbookHeader{}, bookerr.InvalidBookIDError{BookID: bookID}
	}
	return h, nil
}

func saveOrderbookHeader(s *store.Store, h OrderbookHeader) {
	store.Set(s, store.OrderbookKey(h.BookID), h)
}

// CreateOrderbook allocates a book_id for the quote/base denom pair
// and initializes both frontier pointers to their empty sentinels.
// Creating the same pair twice is rejected: spec.md §6 maps each
// denom pair to exactly one book_id.
func (e *Engine) CreateOrderbook(quoteDenom, baseDenom string) (uint64, error) {
	if quoteDenom == "" || baseDenom == "" || quoteDenom == baseDenom {
		return 0, bookerr.InvalidPairError{QuoteDenom: quoteDenom, BaseDenom: baseDenom}
	}

	pairKey := store.DenomPairKey(quoteDenom, baseDenom)
	if _, ok := store.Get[uint64](e.Store, pairKey); ok {
		return 0, bookerr.InvalidPairError{QuoteDenom: quoteDenom, BaseDenom: baseDenom}
	}

	bookID := store.NextSequence(e.Store, store.BookIDCounterKey())
	header := OrderbookHeader{
		BookID:      bookID,
		QuoteDenom:  quoteDenom,
		BaseDenom:   baseDenom,
		NextAskTick: emptyAskTick,
		NextBidTick: emptyBidTick,
	}
	saveOrderbookHeader(e.Store, header)
	store.Set(e.Store, pairKey, bookID)

	log.Info().
		Uint64("book_id", bookID).
		Str("quote_denom", quoteDenom).
		Str("base_denom", baseDenom).
		Msg("created orderbook")

	return bookID, nil
}

// BookIDForPair resolves a previously created book by its denom pair.
func (e *Engine) BookIDForPair(quoteDenom, baseDenom string) (uint64, error) {
	bookID, ok := store.Get[uint64](e.Store, store.DenomPairKey(quoteDenom, baseDenom))
	if !ok {
		return 0, bookerr.InvalidPairError{QuoteDenom: quoteDenom, BaseDenom: baseDenom}
	}
	return bookID, nil
}

// directionFor infers a market order's direction from the denom pair
// it names against the book's registered pair, per spec.md §6: a
// token_in of the book's quote denom paired with token_out of its
// base denom is a Bid, and vice versa; any other combination is
// InvalidPair.
func directionFor(header OrderbookHeader, tokenInDenom, tokenOutDenom string) (Direction, error) {
	switch {
	case tokenInDenom == header.QuoteDenom && tokenOutDenom == header.BaseDenom:
		return Bid, nil
	case tokenInDenom == header.BaseDenom && tokenOutDenom == header.QuoteDenom:
		return Ask, nil
	default:
		return "", bookerr.InvalidPairError{QuoteDenom: tokenInDenom, BaseDenom: tokenOutDenom}
	}
}

// advancePointer recomputes a book's frontier pointer for the given
// direction from the occupied-tick index, per spec.md §4.4/§9: eager
// advancement to the nearest strictly-occupied tick, or the empty
// sentinel if none remain.
func (e *Engine) advancePointer(header *OrderbookHeader, direction Direction) {
	ticks := e.frontierFor(header.BookID).ticksFor(direction)
	tick, ok := ticks.Min()
	if direction == Ask {
		if !ok {
			header.NextAskTick = emptyAskTick
			return
		}
		header.NextAskTick = tick
		return
	}
	if !ok {
		header.NextBidTick = emptyBidTick
		return
	}
	header.NextBidTick = tick
}

// improvePointer widens a book's frontier to include tickID if it is
// the new best (lowest ask / highest bid) occupied tick. Placement
// only ever widens the frontier; it never narrows it.
func improvePointer(header *OrderbookHeader, direction Direction, tickID int64) {
	if direction == Ask {
		if tickID < header.NextAskTick {
			header.NextAskTick = tickID
		}
		return
	}
	if tickID > header.NextBidTick {
		header.NextBidTick = tickID
	}
}
