package fetch

import (
	"context"
	"sync"

	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
)

// job is the unit of work dispatched to a worker.
type job[T any] struct {
	index   int
	payload T
}

type jobResult[R any] struct {
	index int
	value R
	err   error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
type workerPool[T, R any] struct {
	queue   chan job[T]
	results chan jobResult[R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T, R]{
		queue:   make(chan job[T], cap),
		results: make(chan jobResult[R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for j := range p.queue {
		if err := ctx.Err(); err != nil {
			p.results <- jobResult[R]{index: j.index, err: err}
			continue
		}
		v, err := p.process(ctx, j.payload)
		p.results <- jobResult[R]{index: j.index, value: v, err: err}
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (p *workerPool[T, R]) Submit(index int, t T) {
	p.queue <- job[T]{index: index, payload: t}
}

// Drain closes the queue, waits for all workers to finish and closes results.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
	close(p.results)
}

// Outcome is the result of fetching one case.
type Outcome struct {
	CaseID string
	Graph  *graph.Graph
	Err    error
}

// FetchAll fetches several cases on up to workers goroutines. Outcomes are
// returned in the order of caseIDs; one failure does not stop the others.
func (c *Client) FetchAll(ctx context.Context, caseIDs []string, workers int) []Outcome {
	out := make([]Outcome, len(caseIDs))
	if len(caseIDs) == 0 {
		return out
	}
	if workers > len(caseIDs) {
		workers = len(caseIDs)
	}
	pool := newWorkerPool[string, *graph.Graph](ctx, workers, len(caseIDs), c.Fetch)

	for i, id := range caseIDs {
		out[i].CaseID = id
		pool.Submit(i, id)
	}
	go pool.Drain()

	for res := range pool.results {
		out[res.index].Graph = res.value
		out[res.index].Err = res.err
	}
	return out
}
