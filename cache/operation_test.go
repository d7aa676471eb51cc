package cache

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

func TestOperationCache_DeduplicatesConcurrent(t *testing.T) {
	oc := NewOperationCache[string, int](0)

	var calls atomic.Int32
	release := make(chan struct{})
	operation := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 10)
	errs := make([]error, 10)
	for i := range 10 {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index], _, errs[index] = oc.GetOrStart(context.Background(), "a", operation)
		}(i)
	}

	// let every goroutine register before the operation completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestOperationCache_CachesErrors(t *testing.T) {
	oc := NewOperationCache[string, int](0)
	boom := errors.New("boom")

	calls := 0
	operation := func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	}

	_, shared, err := oc.GetOrStart(context.Background(), "a", operation)
	assert.ErrorIs(t, err, boom)
	assert.False(t, shared)

	_, shared, err = oc.GetOrStart(context.Background(), "a", operation)
	assert.ErrorIs(t, err, boom)
	assert.True(t, shared)
	assert.Equal(t, 1, calls)

	_, ok := oc.Peek("a")
	assert.False(t, ok)
}

func TestOperationCache_CallerCancellation(t *testing.T) {
	oc := NewOperationCache[string, string](0)
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := oc.GetOrStart(ctx, "a", func(ctx context.Context) (string, error) {
		<-release
		assert.NoError(t, ctx.Err())
		return "done", nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	value, shared, err := oc.GetOrStart(context.Background(), "a", func(context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.True(t, shared)
	assert.Equal(t, "done", value)
}

func TestOperationCache_TTLForgetClear(t *testing.T) {
	oc := NewOperationCache[int, int](50 * time.Millisecond)
	value := func(v int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return v, nil }
	}

	got, _, _ := oc.GetOrStart(context.Background(), 1, value(1))
	assert.Equal(t, 1, got)

	cached, ok := oc.Peek(1)
	require.True(t, ok)
	assert.Equal(t, 1, cached)

	time.Sleep(80 * time.Millisecond)
	got, shared, _ := oc.GetOrStart(context.Background(), 1, value(2))
	assert.False(t, shared)
	assert.Equal(t, 2, got)

	oc.Forget(1)
	assert.Zero(t, oc.Len())

	_, _, _ = oc.GetOrStart(context.Background(), 2, value(2))
	assert.Equal(t, 1, oc.Len())
	oc.Clear()
	assert.Zero(t, oc.Len())
}
