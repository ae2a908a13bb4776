// Package future provides a single-resolution future: a value or an error
// that is settled exactly once and can be awaited, polled or observed through
// callbacks.
//
// Settling is first-wins. Once a future is resolved or rejected, further
// Resolve and Reject calls return false and change nothing.
//
// Callbacks registered with OnSettled run synchronously on the goroutine that
// settles the future, in registration order, or immediately when the future
// has already settled. This keeps callback-driven code deterministic:
//
//	f := future.New[[]byte]()
//	f.OnSettled(func(b []byte, err error) { ... })
//	f.Resolve([]byte("done")) // callback has run when Resolve returns
//
// Code that prefers blocking uses Await with a context.
package future

import (
	"context"
	"sync"
)

// Future is a single-resolution container for a T or an error.
// The zero value is not usable; create futures with New.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     T
	err       error
	callbacks []func(T, error)
}

// New creates an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It returns false if the future had
// already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It returns false if the future had
// already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// OnSettled registers cb to run once the future settles. If it already has,
// cb runs immediately on the calling goroutine.
func (f *Future[T]) OnSettled(cb func(T, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Done returns a channel closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has been resolved or rejected.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the settled value and error. ok is false while the future
// is still pending.
func (f *Future[T]) Result() (value T, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.settled, f.err
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, _, err := f.Result()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then derives a future from f: on resolution fn maps the value, on rejection
// the error passes through unchanged.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := New[U]()
	f.OnSettled(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		u, err := fn(v)
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(u)
	})
	return out
}

// Forward settles dst with whatever src settles with.
func Forward[T any](src, dst *Future[T]) {
	src.OnSettled(func(v T, err error) {
		if err != nil {
			dst.Reject(err)
			return
		}
		dst.Resolve(v)
	})
}
