// Package worker bounds how many heavy analysis jobs run at once, so a
// burst of API requests cannot pile LLM and retrieval work onto the
// process unbounded.
package worker

import "context"

// DefaultConcurrency is the default number of jobs allowed in flight.
const DefaultConcurrency = 2

// Pool is a counting semaphore over job execution.
type Pool struct {
	slots chan struct{}
}

// NewPool builds a pool allowing n concurrent jobs (DefaultConcurrency
// when n <= 0).
func NewPool(n int) *Pool {
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Pool{slots: make(chan struct{}, n)}
}

// Run executes fn once a slot is free, blocking until then. It returns
// the context's error without running fn if ctx is cancelled while
// waiting.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	return fn()
}
