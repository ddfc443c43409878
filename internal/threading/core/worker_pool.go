package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// spansPerWorker sets how finely a range is cut. More spans than workers lets
// a worker that finishes early take over columns a slower one has not reached.
const spansPerWorker = 4

// WorkerPool traces index ranges on a fixed set of goroutines. The renderer
// hands it one frame's screen columns at a time; jobs must only read shared
// state. The calling goroutine always works on its own batch, so ParallelFor
// completes even before Start or after Stop.
type WorkerPool struct {
	numWorkers int
	batches    chan *batch
	quit       chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
	spans      atomic.Uint64
}

// batch is one ParallelFor call. Workers claim contiguous spans of it through
// a shared cursor until the range is exhausted.
type batch struct {
	ctx      context.Context
	fn       func(int)
	end      int
	span     int
	cursor   atomic.Int64
	finished sync.WaitGroup
}

// NewWorkerPool creates a pool with numWorkers goroutines, one per CPU when numWorkers <= 0
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		batches:    make(chan *batch),
		quit:       make(chan struct{}),
	}
}

// CreateDefaultWorkerPool creates and starts a pool with one worker per CPU
func CreateDefaultWorkerPool() *WorkerPool {
	pool := NewWorkerPool(0)
	pool.Start()
	return pool
}

// Start launches the workers. Calls after the first are ignored.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for i := 0; i < wp.numWorkers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for {
		select {
		case b := <-wp.batches:
			wp.drain(b)
			b.finished.Done()
		case <-wp.quit:
			return
		}
	}
}

// drain runs spans of b until none are left or its context is done.
func (wp *WorkerPool) drain(b *batch) {
	for b.ctx.Err() == nil {
		from := int(b.cursor.Add(int64(b.span))) - b.span
		if from >= b.end {
			return
		}
		for i := from; i < min(from+b.span, b.end); i++ {
			b.fn(i)
		}
		wp.spans.Add(1)
	}
}

// Stop shuts down the workers. It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() { close(wp.quit) })
}

// ParallelFor calls fn for every index in [start, end) and returns when all calls are done.
func (wp *WorkerPool) ParallelFor(start, end int, fn func(int)) {
	wp.ParallelForWithContext(context.Background(), start, end, fn)
}

// ParallelForWithContext is ParallelFor with cancellation. Once ctx is done no
// new span starts; spans already running finish.
func (wp *WorkerPool) ParallelForWithContext(ctx context.Context, start, end int, fn func(int)) {
	if start >= end {
		return
	}
	b := &batch{
		ctx:  ctx,
		fn:   fn,
		end:  end,
		span: max(1, (end-start)/(wp.numWorkers*spansPerWorker)),
	}
	b.cursor.Store(int64(start))

	// hand the batch to idle workers only; busy or stopped ones are skipped
	helpers := min(wp.numWorkers, (end-start+b.span-1)/b.span) - 1
offer:
	for i := 0; i < helpers; i++ {
		b.finished.Add(1)
		select {
		case wp.batches <- b:
		default:
			b.finished.Done()
			break offer
		}
	}
	wp.drain(b)
	b.finished.Wait()
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// SpansRun returns how many spans have been traced since the pool was created
func (wp *WorkerPool) SpansRun() uint64 {
	return wp.spans.Load()
}
