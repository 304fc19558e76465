package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tickbook/internal/engine"
	"tickbook/internal/host"
	"tickbook/internal/store"
)

func main() {
	action := flag.String("action", "demo", "operation to run (only \"demo\" is implemented)")
	quoteDenom := flag.String("quote", "uusdc", "quote denom for the demo orderbook")
	baseDenom := flag.String("base", "uatom", "base denom for the demo orderbook")
	workers := flag.Int("workers", 4, "host worker-pool size")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st := store.New()
	eng := engine.New(st, engine.DefaultConfig())
	h := host.New(ctx, eng, st, *workers)
	defer func() {
		if err := h.Stop(); err != nil {
			log.Error().Err(err).Msg("host stopped with error")
		}
	}()

	switch *action {
	case "demo":
		if err := runDemo(h, *quoteDenom, *baseDenom); err != nil {
			log.Fatal().Err(err).Msg("demo failed")
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q; only \"demo\" is implemented as a scripted run\n", *action)
		os.Exit(1)
	}
}

// runDemo scripts a small end-to-end walk through the book: create a
// pair, rest two ask orders, sweep them with a bid, and claim the
// fill on both sides — exercising place_limit, run_market_order and
// claim_order against one in-memory host the way a real caller would,
// one book-scoped operation at a time through Host.Submit.
func runDemo(h *host.Host, quoteDenom, baseDenom string) error {
	alice := demoAddress()
	bob := demoAddress()
	carol := demoAddress()

	bookIDAny, err := h.Submit(0, func(e *engine.Engine) (any, error) {
		return e.CreateOrderbook(quoteDenom, baseDenom)
	})
	if err != nil {
		return fmt.Errorf("create orderbook: %w", err)
	}
	bookID := bookIDAny.(uint64)
	log.Info().Uint64("book_id", bookID).Str("quote", quoteDenom).Str("base", baseDenom).Msg("created orderbook")

	const tickID int64 = 0
	aliceQty := math.NewInt(50)
	aliceOrderIDAny, err := h.Submit(bookID, func(e *engine.Engine) (any, error) {
		return e.PlaceLimit(bookID, tickID, engine.Ask, alice, aliceQty, math.LegacyZeroDec(), baseDenom, aliceQty)
	})
	if err != nil {
		return fmt.Errorf("place alice's ask: %w", err)
	}
	aliceOrderID := aliceOrderIDAny.(uint64)
	log.Info().Uint64("order_id", aliceOrderID).Str("owner", alice).Msg("alice placed an ask")

	bobQty := math.NewInt(100)
	bobBounty := math.LegacyNewDecWithPrec(35, 2) // 0.35
	bobOrderIDAny, err := h.Submit(bookID, func(e *engine.Engine) (any, error) {
		return e.PlaceLimit(bookID, tickID, engine.Ask, bob, bobQty, bobBounty, baseDenom, bobQty)
	})
	if err != nil {
		return fmt.Errorf("place bob's ask: %w", err)
	}
	bobOrderID := bobOrderIDAny.(uint64)
	log.Info().Uint64("order_id", bobOrderID).Str("owner", bob).Msg("bob placed an ask with a claim bounty")

	bidAmount := math.NewInt(120)
	type swapResult struct {
		output math.Int
		intent engine.TransferIntent
	}
	swapAny, err := h.Submit(bookID, func(e *engine.Engine) (any, error) {
		output, intent, swapErr := e.SwapExactIn(bookID, carol, quoteDenom, bidAmount, baseDenom, math.ZeroInt(), math.LegacyZeroDec())
		if swapErr != nil {
			return nil, swapErr
		}
		return swapResult{output: output, intent: intent}, nil
	})
	if err != nil {
		return fmt.Errorf("run market bid: %w", err)
	}
	swap := swapAny.(swapResult)
	log.Info().Str("swapped_in", bidAmount.String()).Str("received", swap.output.String()).Msg("carol swept the book with a bid")

	claimAliceAny, err := h.Submit(bookID, func(e *engine.Engine) (any, error) {
		return e.ClaimOrder(bookID, tickID, aliceOrderID, alice)
	})
	if err != nil {
		log.Warn().Err(err).Msg("alice's claim had nothing to collect")
	} else {
		logIntents("alice claimed", claimAliceAny.([]engine.TransferIntent))
	}

	claimBobByCarolAny, err := h.Submit(bookID, func(e *engine.Engine) (any, error) {
		return e.ClaimOrder(bookID, tickID, bobOrderID, carol)
	})
	if err != nil {
		log.Warn().Err(err).Msg("carol's claim on bob's order had nothing to collect")
	} else {
		logIntents("carol claimed bob's order on his behalf", claimBobByCarolAny.([]engine.TransferIntent))
	}

	return nil
}

func logIntents(msg string, intents []engine.TransferIntent) {
	event := log.Info()
	for i, intent := range intents {
		event = event.Str(fmt.Sprintf("recipient_%d", i), intent.Recipient).
			Str(fmt.Sprintf("amount_%d", i), intent.Amount.String()+intent.Denom)
	}
	event.Msg(msg)
}

// demoAddress stands in for a chain address: the host's real
// key-value store is addressed by denom/tick/order id, never by this
// value's shape, so any unique string works here.
func demoAddress() string {
	return uuid.NewString()
}
