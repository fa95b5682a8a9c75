// Package serial runs operations one at a time in arrival order.
//
// Each store owns one Queue. Hydration and every mutation of that store go
// through it, so a mutation always computes its snapshot from the state left
// by the one before it.
package serial

import (
	"context"
	"sync/atomic"
)

// DepthFunc receives the number of operations waiting on or holding the queue.
type DepthFunc func(depth int)

// Queue is a single-slot semaphore. The zero value is not usable; call New.
type Queue struct {
	slot    chan struct{}
	depth   atomic.Int64
	onDepth DepthFunc
}

// Option configures a Queue.
type Option func(*Queue)

// WithDepthFunc reports queue depth changes to fn.
func WithDepthFunc(fn DepthFunc) Option {
	return func(q *Queue) { q.onDepth = fn }
}

// New creates an idle queue.
func New(opts ...Option) *Queue {
	q := &Queue{slot: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Do waits for the queue and runs fn while holding it. A caller still
// waiting when ctx is done gives up with ctx.Err() and fn is not run.
// Once fn has started it runs to completion.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	q.track(1)
	defer q.track(-1)

	select {
	case q.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-q.slot }()

	return fn(ctx)
}

// Depth returns the number of operations waiting on or holding the queue.
func (q *Queue) Depth() int {
	return int(q.depth.Load())
}

func (q *Queue) track(delta int64) {
	d := q.depth.Add(delta)
	if q.onDepth != nil {
		q.onDepth(int(d))
	}
}
