package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkFunc processes one item; it is only ever called from the worker it was created for
type WorkFunc func(index int) error

// WorkerPool runs a fixed number of workers over the indices [0, total) with a strided
// assignment: worker i owns i, i+N, i+2N, ... so no shared queue is needed.
// Workers are spawned per Run and joined before it returns.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run calls newWorker once per worker to build its WorkFunc, then feeds each worker
// its share of indices. Cancellation is checked before every index. The first error
// stops the other workers; Run waits for all of them and returns that error.
func (wp *WorkerPool) Run(ctx context.Context, total int, newWorker func(workerID int) WorkFunc) error {
	g, gctx := errgroup.WithContext(ctx)

	for id := 0; id < wp.numWorkers; id++ {
		work := newWorker(id)
		g.Go(func() error {
			for index := id; index < total; index += wp.numWorkers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := work(index); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
