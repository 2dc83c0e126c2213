// Package future provides a typed, single-assignment completion cell used to
// hand the outcome of work running on another goroutine back to its caller.
//
// A Future is written exactly once, through Resolve or Reject, and may be read
// any number of times. A second write panics with ErrAlreadyCompleted, which
// makes a double completion a programming error that surfaces immediately
// instead of a silently dropped result.
//
// # Thread safety
//
// All methods are safe for concurrent use by multiple goroutines.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyCompleted is the panic value raised when a Future is written twice.
var ErrAlreadyCompleted = errors.New("future already completed")

// Callback receives the outcome of a Future. Exactly one of value and err is
// meaningful: err is nil on success.
type Callback[T any] func(value T, err error)

// Future is a one-shot completion cell for a value of type T.
// The zero value is not usable; create instances with New, Resolved or Failed.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []Callback[T]
}

// New returns a pending Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future already completed with value.
func Resolved[T any](value T) *Future[T] {
	f := New[T]()
	f.Resolve(value)
	return f
}

// Failed returns a Future already completed with err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve completes the Future with value.
// It panics with ErrAlreadyCompleted if the Future was already completed.
func (f *Future[T]) Resolve(value T) {
	f.complete(value, nil)
}

// Reject completes the Future with err.
// It panics if err is nil or if the Future was already completed.
func (f *Future[T]) Reject(err error) {
	if err == nil {
		panic("future: Reject called with nil error")
	}
	var zero T
	f.complete(zero, err)
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		panic(ErrAlreadyCompleted)
	}
	f.completed = true
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// Callbacks run outside the lock so they may read the Future again.
	for _, cb := range callbacks {
		cb(value, err)
	}
}

// Done returns a channel that is closed once the Future is completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the Future has been completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the Future is completed or ctx is done.
// A ctx error only stops the wait; it does not affect the work behind the Future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if ctx == nil {
		var zero T
		return zero, fmt.Errorf("context cannot be nil")
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("waiting for future: %w", ctx.Err())
	}
}

// Result blocks until the Future is completed and returns its outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// OnComplete registers cb to run once the Future is completed.
// If the Future is already completed, cb runs immediately on the calling
// goroutine; otherwise it runs on the goroutine that completes the Future.
// Callbacks run in registration order.
func (f *Future[T]) OnComplete(cb Callback[T]) {
	if cb == nil {
		return
	}

	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()

	cb(value, err)
}
