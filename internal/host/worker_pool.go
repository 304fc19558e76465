// Package host runs book-scoped engine operations behind a worker
// pool while enforcing the single-writer-per-book discipline spec.md
// §5 assumes: no invocation of place_limit, cancel_order,
// run_market_order or claim_order ever overlaps another on the same
// book, and every invocation either commits in full or is rolled back
// in full on failure.
package host

import "gopkg.in/tomb.v2"

// WorkerFunction processes one task pulled off a WorkerPool's shared
// queue. Returning a non-nil error stops that worker goroutine and
// kills the pool's tomb, stopping every other worker as well, so
// business-logic errors belonging to the task itself must be reported
// through the task's own result channel, never by return value.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of goroutines pulling tasks off a
// shared channel and handing them to a WorkerFunction.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool returns a pool sized for size concurrent workers.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{n: size, tasks: make(chan any, size*4)}
}

// Setup starts the pool's workers under t, each running work until t
// is killed.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.worker(t, work)
		})
	}
}

func (p *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				return err
			}
		}
	}
}

// Submit enqueues a task, blocking until a slot frees up or t is
// killed. Reports false if the pool is shutting down.
func (p *WorkerPool) Submit(t *tomb.Tomb, task any) bool {
	select {
	case p.tasks <- task:
		return true
	case <-t.Dying():
		return false
	}
}
