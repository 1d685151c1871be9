package service

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Do after Close.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// WorkerPool runs store mutations off the request goroutines.  Callers
// still block until their job finishes, and a job that has started is
// never interrupted: it runs with a context that ignores the caller's
// cancellation.
type WorkerPool struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 10
	}
	p := &WorkerPool{jobs: make(chan job)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.done <- j.fn(j.ctx)
	}
}

// Do hands fn to a worker and waits for its result.  If ctx ends before
// a worker picks the job up, Do returns ctx.Err() and fn never runs.
func (p *WorkerPool) Do(ctx context.Context, fn func(context.Context) error) error {
	j := job{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan error, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	return <-j.done
}

// Close lets running jobs finish and stops the workers.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
