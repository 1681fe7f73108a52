// Package worker runs matching jobs off the request path on a bounded pool.
package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of background work. Run owns its own error handling; by the
// time a job executes, the request that scheduled it has already returned.
type Job interface {
	Run(ctx context.Context)
}

// Pool is a fixed-size worker pool over a buffered queue. The fixed size
// caps concurrent sweeps; a full queue drops the job rather than blocking
// the submitter.
type Pool struct {
	queue   chan Job
	workers int
	log     *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool builds a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Pool{
		queue:   make(chan Job, queueSize),
		workers: workers,
		log:     log,
	}
}

// Start launches the worker goroutines. Workers exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
	})
}

// Submit queues a job without blocking. Returns false when the queue is
// full and the job was dropped.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.queue <- job:
		return true
	default:
		p.log.Warn("worker queue full, dropping job")
		return false
	}
}

// Wait blocks until all workers have exited. Call after cancelling the
// start context.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			p.run(ctx, job)
		}
	}
}

// run isolates one job: a panic is logged and never takes down the worker
// or its siblings.
func (p *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("job panicked", "panic", r)
		}
	}()
	job.Run(ctx)
}
