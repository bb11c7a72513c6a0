// Package worker provides the bounded pool blocking node handlers run on.
// The pool is shared across every concurrent session; its size bounds the
// real concurrency ceiling of blocking work.
package worker

import "context"

// Pool is a fixed-size slot pool. Submission suspends the caller until a
// slot frees up or the context is cancelled.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots. Sizes below one
// are clamped to one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Size returns the pool's slot count.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// Submit runs fn on a pool slot and blocks until it completes. A nil return
// guarantees fn ran to completion. When ctx is cancelled while waiting for
// a slot, fn never runs; when cancelled while fn is running, Submit returns
// ctx.Err() immediately and the slot is released once fn eventually
// returns — a handler cannot be killed, only abandoned.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		defer func() { <-p.slots }()
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
