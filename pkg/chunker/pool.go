package chunker

import (
	"runtime"
	"sync"

	"github.com/chunkd/chunkd/pkg/errors"
)

// ErrPoolClosed is returned by Submit after Shutdown has begun.
var ErrPoolClosed = errors.New("chunker: pool is closed")

// Pool is a long-lived bounded pool of workers executing CPU-bound
// tasks. It is created once at service startup and shared by all
// chunking pipelines.
type Pool struct {
	tasks   chan func()
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with the given number of workers. A count
// below 1 defaults to the number of CPUs.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan func(), 2*workers),
	}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task for execution. It blocks when the queue is
// full and fails fast with ErrPoolClosed once Shutdown has begun;
// work is never silently dropped.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Shutdown stops accepting work, drains every queued task and waits
// for the workers to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.workers.Wait()
}
