package transport

import (
	"context"
	"sync"
)

// Future is the completion token returned by Connect and Disconnect. It is
// satisfied at most once, with either nil or the error the operation failed
// with.
type Future struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewFuture returns an unsatisfied Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a Future that is already satisfied with err.
func Resolved(err error) *Future {
	f := NewFuture()
	f.Complete(err)
	return f
}

// Complete satisfies the Future with err. Only the first call has an
// effect; it reports whether this call satisfied the Future.
func (f *Future) Complete(err error) bool {
	completed := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		completed = true
	})
	return completed
}

// Done returns a channel that is closed once the Future is satisfied.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the Future has been satisfied.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the outcome of a satisfied Future. It returns nil while the
// Future is pending; use Done or Wait to tell the cases apart.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the Future is satisfied or ctx is done, and returns the
// operation's error or ctx.Err(). Giving up on the wait does not cancel the
// operation.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
