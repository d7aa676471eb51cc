// Package cache provides a generic cache of in-flight operations shared by
// concurrent callers.
package cache

import (
	"context"
	"sync"
	"time"
)

// OperationCache caches in-flight operations by key: concurrent callers
// asking for the same key join a single run of the operation and share its
// result. Results, errors included, stay cached until they expire or are
// forgotten.
type OperationCache[K comparable, V any] struct {
	mu         sync.Mutex
	operations map[K]*operationState[V]

	// TTL for cache entries (0 = no expiration)
	ttl time.Duration
}

// operationState holds the state of an in-flight operation
type operationState[V any] struct {
	done    chan struct{}
	started time.Time
	value   V
	err     error
}

// NewOperationCache creates a new operation cache
func NewOperationCache[K comparable, V any](ttl time.Duration) *OperationCache[K, V] {
	return &OperationCache[K, V]{
		operations: make(map[K]*operationState[V]),
		ttl:        ttl,
	}
}

// GetOrStart returns the result of the operation for key, starting it if no
// run is cached. The operation runs outside the lock on a context detached
// from the caller's cancellation, so a caller giving up does not fail the
// other waiters. shared reports whether an existing run was joined.
func (oc *OperationCache[K, V]) GetOrStart(
	ctx context.Context,
	key K,
	operation func(context.Context) (V, error),
) (value V, shared bool, err error) {
	oc.mu.Lock()
	state, ok := oc.operations[key]
	if ok && oc.expired(state) {
		ok = false
	}
	if !ok {
		state = &operationState[V]{done: make(chan struct{}), started: time.Now()}
		oc.operations[key] = state
	}
	oc.mu.Unlock()

	if !ok {
		go func() {
			defer close(state.done)
			state.value, state.err = operation(context.WithoutCancel(ctx))
		}()
	}

	select {
	case <-ctx.Done():
		var zero V
		return zero, ok, ctx.Err()
	case <-state.done:
		return state.value, ok, state.err
	}
}

// Peek returns the result cached for key if its operation has completed.
func (oc *OperationCache[K, V]) Peek(key K) (V, bool) {
	oc.mu.Lock()
	state, ok := oc.operations[key]
	oc.mu.Unlock()

	var zero V
	if !ok {
		return zero, false
	}
	select {
	case <-state.done:
		if state.err != nil {
			return zero, false
		}
		return state.value, true
	default:
		return zero, false
	}
}

// Forget drops the entry for key; running callers still receive its result.
func (oc *OperationCache[K, V]) Forget(key K) {
	oc.mu.Lock()
	delete(oc.operations, key)
	oc.mu.Unlock()
}

// Len returns the number of cached entries.
func (oc *OperationCache[K, V]) Len() int {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return len(oc.operations)
}

// Clear removes all cached operations
func (oc *OperationCache[K, V]) Clear() {
	oc.mu.Lock()
	oc.operations = make(map[K]*operationState[V])
	oc.mu.Unlock()
}

// expired checks if a cache entry has exceeded TTL
func (oc *OperationCache[K, V]) expired(state *operationState[V]) bool {
	return oc.ttl > 0 && time.Since(state.started) > oc.ttl
}
