package engine

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"tickbook/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(store.New(), DefaultConfig())
}

func mustCreateBook(t *testing.T, e *Engine, quote, base string) uint64 {
	t.Helper()
	bookID, err := e.CreateOrderbook(quote, base)
	require.NoError(t, err)
	return bookID
}

func TestCreateOrderbookRejectsDuplicatePair(t *testing.T) {
	e := newTestEngine(t)
	mustCreateBook(t, e, "uusdc", "uatom")
	_, err := e.CreateOrderbook("uusdc", "uatom")
	require.Error(t, err)
}

func TestCreateOrderbookRejectsSameDenom(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateOrderbook("uusdc", "uusdc")
	require.Error(t, err)
}

// TestMarketBidSingleTick covers spec.md §8 scenario 2: tick
// -1,500,000 prices at 0.85, so 1000 resting Ask liquidity sells 1000
// units of input for 850 units of output to a sweeping bid.
func TestMarketBidSingleTick(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const tickID int64 = -1_500_000
	qty := math.NewInt(1000)
	orderID, err := e.PlaceLimit(bookID, tickID, Ask, "alice", qty, math.LegacyZeroDec(), "uatom", qty)
	require.NoError(t, err)

	output, intent, err := e.SwapExactIn(bookID, "carol", "uusdc", math.NewInt(1000), "uatom", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)
	require.Equal(t, "850", output.String())
	require.Equal(t, "carol", intent.Recipient)
	require.Equal(t, "uatom", intent.Denom)

	header, err := loadOrderbookHeader(e.Store, bookID)
	require.NoError(t, err)
	require.Equal(t, tickID, header.NextAskTick, "tick still has unclaimed liquidity resting, pointer shouldn't move")

	intents, err := e.ClaimOrder(bookID, tickID, orderID, "alice")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	// 850 filled base units at price 0.85 pay the owner 850/0.85 quote.
	require.Equal(t, "1000", intents[0].Amount.String())
}

// TestMarketAskExactTickRounding covers spec.md §8 scenario 4: tick
// -17,765,433 prices at 0.012345670000000000, so an ask of 1000 units
// sells for 81,000 units of output, floor-rounded.
func TestMarketAskExactTickRounding(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const tickID int64 = -17_765_433
	restingQty := math.NewInt(200_000)
	_, err := e.PlaceLimit(bookID, tickID, Bid, "alice", restingQty, math.LegacyZeroDec(), "uusdc", restingQty)
	require.NoError(t, err)

	output, _, err := e.SwapExactIn(bookID, "carol", "uatom", math.NewInt(1000), "uusdc", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)
	require.Equal(t, "81000", output.String())
}

// TestClaimBountySplit covers spec.md §8 scenario 5: a resting order
// with a 0.35 claim bounty pays a non-owner claimer that share of the
// output, truncated down, with the remainder to the owner.
func TestClaimBountySplit(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const tickID int64 = 0 // price(0) = 1
	qty := math.NewInt(10)
	bounty := math.LegacyNewDecWithPrec(35, 2)
	orderID, err := e.PlaceLimit(bookID, tickID, Ask, "alice", qty, bounty, "uatom", qty)
	require.NoError(t, err)

	_, _, err = e.SwapExactIn(bookID, "carol", "uusdc", math.NewInt(7), "uatom", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)

	intents, err := e.ClaimOrder(bookID, tickID, orderID, "carol")
	require.NoError(t, err)
	require.Len(t, intents, 2)

	var bountyAmt, ownerAmt math.Int
	for _, intent := range intents {
		switch intent.Recipient {
		case "carol":
			bountyAmt = intent.Amount
		case "alice":
			ownerAmt = intent.Amount
		}
	}
	require.Equal(t, "2", bountyAmt.String()) // floor(7*0.35) = 2
	require.Equal(t, "5", ownerAmt.String())

	order, err := loadOrder(e.Store, bookID, tickID, orderID)
	require.NoError(t, err)
	require.Equal(t, "3", order.Quantity.String())
}

// TestClaimWithInterveningCancellation covers spec.md §8 scenario 6:
// order A cancels before it is ever swept, order B rests behind it;
// a market sweep consuming exactly B's resting quantity must let B
// claim its full fill, undiminished by A's cancellation.
func TestClaimWithInterveningCancellation(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const tickID int64 = 0
	qtyA := math.NewInt(50)
	orderA, err := e.PlaceLimit(bookID, tickID, Ask, "alice", qtyA, math.LegacyZeroDec(), "uatom", qtyA)
	require.NoError(t, err)

	qtyB := math.NewInt(100)
	orderB, err := e.PlaceLimit(bookID, tickID, Ask, "bob", qtyB, math.LegacyZeroDec(), "uatom", qtyB)
	require.NoError(t, err)

	refund, err := e.CancelOrder(bookID, tickID, orderA, "alice")
	require.NoError(t, err)
	require.Equal(t, "50", refund.Amount.String())

	output, _, err := e.SwapExactIn(bookID, "carol", "uusdc", math.NewInt(100), "uatom", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)
	require.Equal(t, "100", output.String())

	intents, err := e.ClaimOrder(bookID, tickID, orderB, "bob")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	require.Equal(t, "100", intents[0].Amount.String())

	_, err = loadOrder(e.Store, bookID, tickID, orderB)
	require.Error(t, err, "order B should be fully closed and deleted after claiming its whole fill")
}

// TestTickReversalKeepsDirectionsIndependent covers spec.md §8
// scenario 7: a single tick can carry resting liquidity on both sides
// at once, and each side's TickValues must account independently.
func TestTickReversalKeepsDirectionsIndependent(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const tickID int64 = 0
	askQty := math.NewInt(100)
	askOrder, err := e.PlaceLimit(bookID, tickID, Ask, "alice", askQty, math.LegacyZeroDec(), "uatom", askQty)
	require.NoError(t, err)

	// Sweep the ask liquidity away with a bid, then rest a bid order at
	// the same tick: the book now carries liquidity on the other side
	// of the very same tick.
	_, _, err = e.SwapExactIn(bookID, "carol", "uusdc", math.NewInt(100), "uatom", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)

	bidQty := math.NewInt(40)
	bidOrder, err := e.PlaceLimit(bookID, tickID, Bid, "dave", bidQty, math.LegacyZeroDec(), "uusdc", bidQty)
	require.NoError(t, err)

	askIntents, err := e.ClaimOrder(bookID, tickID, askOrder, "alice")
	require.NoError(t, err)
	require.Equal(t, "100", askIntents[0].Amount.String())

	output, _, err := e.SwapExactIn(bookID, "erin", "uatom", math.NewInt(40), "uusdc", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)
	require.Equal(t, "40", output.String())

	bidIntents, err := e.ClaimOrder(bookID, tickID, bidOrder, "dave")
	require.NoError(t, err)
	require.Equal(t, "40", bidIntents[0].Amount.String())
}

func TestCancelRefundsUnfilledAndDeletesOrder(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	qty := math.NewInt(25)
	orderID, err := e.PlaceLimit(bookID, 100, Ask, "alice", qty, math.LegacyZeroDec(), "uatom", qty)
	require.NoError(t, err)

	_, err = e.CancelOrder(bookID, 100, orderID, "mallory")
	require.Error(t, err, "a non-owner must not be able to cancel")

	refund, err := e.CancelOrder(bookID, 100, orderID, "alice")
	require.NoError(t, err)
	require.Equal(t, "25", refund.Amount.String())
	require.Equal(t, "uatom", refund.Denom)

	_, err = loadOrder(e.Store, bookID, 100, orderID)
	require.Error(t, err)
}

func TestPlaceLimitRejectsOutOfRangeInputs(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	_, err := e.PlaceLimit(bookID, 999_999_999, Ask, "alice", math.NewInt(10), math.LegacyZeroDec(), "uatom", math.NewInt(10))
	require.Error(t, err)

	_, err = e.PlaceLimit(bookID, 0, Ask, "alice", math.ZeroInt(), math.LegacyZeroDec(), "uatom", math.ZeroInt())
	require.Error(t, err)

	_, err = e.PlaceLimit(bookID, 0, Ask, "alice", math.NewInt(10), math.LegacyNewDec(2), "uatom", math.NewInt(10))
	require.Error(t, err)

	_, err = e.PlaceLimit(bookID, 0, Ask, "alice", math.NewInt(10), math.LegacyZeroDec(), "uusdc", math.NewInt(10))
	require.Error(t, err, "paying in the wrong denom must be rejected")
}

func TestRunMarketOrderRejectsBoundPastFrontier(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	qty := math.NewInt(10)
	_, err := e.PlaceLimit(bookID, 100, Ask, "alice", qty, math.LegacyZeroDec(), "uatom", qty)
	require.NoError(t, err)

	order := &MarketOrder{Direction: Bid, Owner: "carol", InputAmount: math.NewInt(5)}
	_, _, err = e.RunMarketOrder(bookID, order, 50)
	require.Error(t, err, "a bid's tick bound below the ask frontier must be rejected")
}

// TestMarketBidMultiTickSweep covers the multi-tick-crossing shape of
// spec.md §8 scenario 3: a bid large enough to drain the nearest ask
// tick entirely must roll over and keep buying from the next
// occupied tick at its own price.
func TestMarketBidMultiTickSweep(t *testing.T) {
	e := newTestEngine(t)
	bookID := mustCreateBook(t, e, "uusdc", "uatom")

	const nearTick int64 = -1_500_000  // price 0.85
	const farTick int64 = 40_000_000   // price 50000
	nearQty := math.NewInt(500)
	farQty := math.NewInt(1_000_000)

	_, err := e.PlaceLimit(bookID, nearTick, Ask, "alice", nearQty, math.LegacyZeroDec(), "uatom", nearQty)
	require.NoError(t, err)
	_, err = e.PlaceLimit(bookID, farTick, Ask, "bob", farQty, math.LegacyZeroDec(), "uatom", farQty)
	require.NoError(t, err)

	output, _, err := e.SwapExactIn(bookID, "carol", "uusdc", math.NewInt(590), "uatom", math.ZeroInt(), math.LegacyZeroDec())
	require.NoError(t, err)

	// The near tick fully drains for 500 output at price 0.85 (needs
	// ceil(500/0.85) = 589 input); the remaining 1 input unit crosses
	// to the far tick at price 50000 for another 50000 output.
	require.Equal(t, "50500", output.String())

	header, err := loadOrderbookHeader(e.Store, bookID)
	require.NoError(t, err)
	require.Equal(t, farTick, header.NextAskTick, "the drained near tick must drop out of the frontier")
}
