package worker

import (
	"context"
	"sync"

	"github.com/planproof/planproof/internal/model"
)

// ReviewFunc reviews a single page and returns its findings.
type ReviewFunc func(ctx context.Context, pc model.PageContext) ([]model.Finding, error)

// PageResult carries the outcome of one page review.
type PageResult struct {
	PageIndex int
	Findings  []model.Finding
	Err       error
}

// Pool fans page reviews out across a bounded set of workers. Each worker
// pulls page contexts from a shared queue and runs the review function;
// results are collected by Wait.
type Pool struct {
	workers   int
	run       ReviewFunc
	jobs      chan model.PageContext
	results   chan PageResult
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given worker count. The pool's context is
// derived from ctx; cancelling ctx stops in-flight reviews.
func NewPool(ctx context.Context, workers int, run ReviewFunc) *Pool {
	if workers <= 0 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		run:     run,
		jobs:    make(chan model.PageContext, workers*2),
		results: make(chan PageResult, workers*2),
		ctx:     poolCtx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case pc, ok := <-p.jobs:
			if !ok {
				return
			}
			findings, err := p.run(p.ctx, pc)
			result := PageResult{PageIndex: pc.PageIndex, Findings: findings, Err: err}
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a page for review. Dropped silently if the pool is shut down.
func (p *Pool) Submit(pc model.PageContext) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- pc:
	}
}

// Wait closes the queue, waits for all submitted pages to finish, and returns
// the results. Result order follows completion, not submission; callers key
// off PageResult.PageIndex.
func (p *Pool) Wait() []PageResult {
	close(p.jobs)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []PageResult
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown cancels in-flight reviews and releases the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
