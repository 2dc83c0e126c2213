package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Resolve(t *testing.T) {
	f := New[string]()
	assert.False(t, f.IsDone())

	f.Resolve("value")

	assert.True(t, f.IsDone())
	value, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	// Reads are repeatable.
	value, err = f.Result()
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestFuture_Reject(t *testing.T) {
	boom := errors.New("boom")
	f := New[int]()
	f.Reject(boom)

	value, err := f.Result()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, value)
}

func TestFuture_DoubleCompletionPanics(t *testing.T) {
	tests := []struct {
		name   string
		first  func(f *Future[int])
		second func(f *Future[int])
	}{
		{
			name:   "resolve twice",
			first:  func(f *Future[int]) { f.Resolve(1) },
			second: func(f *Future[int]) { f.Resolve(2) },
		},
		{
			name:   "resolve then reject",
			first:  func(f *Future[int]) { f.Resolve(1) },
			second: func(f *Future[int]) { f.Reject(errors.New("late")) },
		},
		{
			name:   "reject then resolve",
			first:  func(f *Future[int]) { f.Reject(errors.New("first")) },
			second: func(f *Future[int]) { f.Resolve(2) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New[int]()
			tt.first(f)
			assert.PanicsWithValue(t, ErrAlreadyCompleted, func() { tt.second(f) })
		})
	}
}

func TestFuture_RejectNilPanics(t *testing.T) {
	f := New[int]()
	assert.Panics(t, func() { f.Reject(nil) })
	assert.False(t, f.IsDone())
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The future is still pending and can be completed afterwards.
	assert.False(t, f.IsDone())
	f.Resolve(7)
	value, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}

//nolint:staticcheck // deliberately passing a nil context
func TestFuture_WaitWithNilContext(t *testing.T) {
	f := Resolved(1)
	_, err := f.Wait(nil)
	assert.EqualError(t, err, "context cannot be nil")
}

func TestFuture_OnComplete(t *testing.T) {
	t.Run("registered before completion", func(t *testing.T) {
		f := New[string]()
		var order []string
		f.OnComplete(func(v string, err error) { order = append(order, "first:"+v) })
		f.OnComplete(func(v string, err error) { order = append(order, "second:"+v) })

		f.Resolve("x")

		assert.Equal(t, []string{"first:x", "second:x"}, order)
	})

	t.Run("registered after completion runs immediately", func(t *testing.T) {
		boom := errors.New("boom")
		f := Failed[string](boom)

		var got error
		f.OnComplete(func(_ string, err error) { got = err })

		assert.ErrorIs(t, got, boom)
	})

	t.Run("nil callback is ignored", func(t *testing.T) {
		f := New[int]()
		f.OnComplete(nil)
		assert.NotPanics(t, func() { f.Resolve(1) })
	})
}

func TestFuture_ConcurrentReaders(t *testing.T) {
	f := New[int]()
	const readers = 50

	var wg sync.WaitGroup
	var seen atomic.Int32
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := f.Wait(context.Background())
			if err == nil && value == 42 {
				seen.Add(1)
			}
		}()
	}

	f.Resolve(42)
	wg.Wait()

	assert.Equal(t, int32(readers), seen.Load())
}

func TestFuture_ConcurrentWritersResolveOnce(t *testing.T) {
	f := New[int]()
	const writers = 20

	var wg sync.WaitGroup
	var panics atomic.Int32
	for i := range writers {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics.Add(1)
				}
			}()
			f.Resolve(v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(writers-1), panics.Load())
	assert.True(t, f.IsDone())
}
