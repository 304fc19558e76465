package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/tomb.v2"

	"tickbook/internal/engine"
	"tickbook/internal/store"
)

// bookOp is one unit of work submitted to the host: run executes
// against the shared engine and reports its result back on done.
type bookOp struct {
	bookID uint64
	run    func(*engine.Engine) (any, error)
	done   chan opResult
}

type opResult struct {
	value any
	err   error
}

// Host executes book-scoped engine operations through a worker pool.
// A mutex keyed by book_id, held for the duration of one operation,
// keeps two operations on the same book from ever overlapping while
// operations on different books still run concurrently across the
// pool. Every operation runs against a snapshot of the store and the
// snapshot is restored whole if the operation errors (or panics),
// giving the atomic-commit-or-rollback behavior spec.md §5 requires
// without the engine itself needing to know about transactions.
type Host struct {
	engine *engine.Engine
	store  *store.Store
	pool   *WorkerPool
	t      *tomb.Tomb

	locksMu sync.Mutex
	locks   map[uint64]*sync.Mutex
}

// New starts a host backed by eng/st with the given worker-pool size,
// running until ctx is cancelled or Stop is called.
func New(ctx context.Context, eng *engine.Engine, st *store.Store, workers int) *Host {
	t, ctx := tomb.WithContext(ctx)
	h := &Host{
		engine: eng,
		store:  st,
		pool:   NewWorkerPool(workers),
		t:      t,
		locks:  make(map[uint64]*sync.Mutex),
	}
	h.pool.Setup(t, h.handle)
	t.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return h
}

func (h *Host) bookLock(bookID uint64) *sync.Mutex {
	h.locksMu.Lock()
	defer h.locksMu.Unlock()
	m, ok := h.locks[bookID]
	if !ok {
		m = &sync.Mutex{}
		h.locks[bookID] = m
	}
	return m
}

func (h *Host) handle(_ *tomb.Tomb, task any) (err error) {
	op := task.(bookOp)
	lock := h.bookLock(op.bookID)
	lock.Lock()
	defer lock.Unlock()

	snap := h.store.Snapshot()
	result := opResult{}
	func() {
		defer func() {
			if r := recover(); r != nil {
				h.store.Restore(snap)
				result.err = fmt.Errorf("book %d: operation panicked: %v", op.bookID, r)
				log.Error().Uint64("book_id", op.bookID).Interface("panic", r).Msg("book operation panicked, rolled back")
			}
		}()
		result.value, result.err = op.run(h.engine)
		if result.err != nil {
			h.store.Restore(snap)
		}
	}()

	op.done <- result
	return nil
}

// Submit runs fn against bookID, serialized with any other in-flight
// operation on the same book, and blocks for its result.
func (h *Host) Submit(bookID uint64, fn func(*engine.Engine) (any, error)) (any, error) {
	done := make(chan opResult, 1)
	op := bookOp{bookID: bookID, run: fn, done: done}
	if !h.pool.Submit(h.t, op) {
		return nil, h.t.Err()
	}
	select {
	case res := <-done:
		return res.value, res.err
	case <-h.t.Dying():
		return nil, h.t.Err()
	}
}

// Stop signals the pool to exit and waits for every worker to return.
func (h *Host) Stop() error {
	h.t.Kill(nil)
	return h.t.Wait()
}
