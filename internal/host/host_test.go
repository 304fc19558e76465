package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"tickbook/internal/engine"
	"tickbook/internal/store"
)

func newTestHost(t *testing.T) (*Host, context.CancelFunc) {
	t.Helper()
	st := store.New()
	eng := engine.New(st, engine.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	h := New(ctx, eng, st, 4)
	t.Cleanup(func() {
		cancel()
		_ = h.Stop()
	})
	return h, cancel
}

func TestSubmitRunsAgainstSharedEngine(t *testing.T) {
	h, _ := newTestHost(t)

	result, err := h.Submit(1, func(e *engine.Engine) (any, error) {
		return e.CreateOrderbook("uusdc", "uatom")
	})
	require.NoError(t, err)
	bookID := result.(uint64)
	require.Equal(t, uint64(1), bookID)
}

func TestSubmitRollsBackStoreOnError(t *testing.T) {
	h, _ := newTestHost(t)

	_, err := h.Submit(1, func(e *engine.Engine) (any, error) {
		return e.CreateOrderbook("uusdc", "uatom")
	})
	require.NoError(t, err)

	sentinel := errors.New("boom")
	_, err = h.Submit(1, func(e *engine.Engine) (any, error) {
		ten := math.NewInt(10)
		if _, placeErr := e.PlaceLimit(1, 0, engine.Ask, "alice", ten, math.LegacyZeroDec(), "uatom", ten); placeErr != nil {
			return nil, placeErr
		}
		return nil, sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The order placed before the sentinel error must not have
	// survived the rollback: a second, independent placement should
	// get order id 0 again, not 1.
	result, err := h.Submit(1, func(e *engine.Engine) (any, error) {
		five := math.NewInt(5)
		return e.PlaceLimit(1, 0, engine.Ask, "bob", five, math.LegacyZeroDec(), "uatom", five)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), result.(uint64))
}

func TestSubmitConcurrentOpsOnSameBookBothComplete(t *testing.T) {
	h, _ := newTestHost(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Submit(1, func(e *engine.Engine) (any, error) {
				time.Sleep(10 * time.Millisecond)
				return nil, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
