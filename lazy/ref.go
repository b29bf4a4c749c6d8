// Package lazy provides deferred references to remote resources.
//
// A Ref holds the natural key of a resource (a name, an email, an id) and a
// fetch function bound to the client that produced it. Nothing is fetched
// until Resolve is called; the first successful result is memoized for the
// lifetime of the Ref. Concurrent first calls share a single fetch through
// singleflight, so every waiter observes the same value or the same error.
package lazy

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cocoonstack/orka/types"
)

// Fetcher loads the resource identified by key.
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

// Ref is a deferred handle to a remote resource.
// The zero value is not usable; build refs with New or Resolved.
type Ref[T any] struct {
	key   string
	fetch Fetcher[T]

	group singleflight.Group
	mu    sync.RWMutex
	done  bool
	value T
}

// New returns an unresolved Ref. It never fails and never performs I/O.
func New[T any](key string, fetch Fetcher[T]) *Ref[T] {
	return &Ref[T]{key: key, fetch: fetch}
}

// Resolved returns a Ref that is already resolved to value.
func Resolved[T any](key string, value T) *Ref[T] {
	return &Ref[T]{key: key, done: true, value: value}
}

// Key returns the identifying value without resolving. A nil Ref has key "".
func (r *Ref[T]) Key() string {
	if r == nil {
		return ""
	}
	return r.key
}

func (r *Ref[T]) String() string { return r.Key() }

// Resolved reports whether the value has been memoized.
func (r *Ref[T]) Resolved() bool {
	_, ok := r.cached()
	return ok
}

// Resolve returns the referenced value, fetching it on first use.
// A failed fetch is not memoized: a later call fetches again.
// Calling Resolve on a nil Ref fails with types.ErrNotFound.
func (r *Ref[T]) Resolve(ctx context.Context) (T, error) {
	var zero T
	if r == nil {
		return zero, fmt.Errorf("%w: empty reference", types.ErrNotFound)
	}
	if v, ok := r.cached(); ok {
		return v, nil
	}
	if r.fetch == nil {
		return zero, fmt.Errorf("%w: reference %q has no fetcher", types.ErrNotFound, r.key)
	}
	_, err, _ := r.group.Do(r.key, func() (any, error) {
		// A previous flight may have completed between cached() and Do.
		if _, ok := r.cached(); ok {
			return nil, nil
		}
		v, err := r.fetch(ctx, r.key)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.value, r.done = v, true
		r.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return zero, fmt.Errorf("resolve %q: %w", r.key, err)
	}
	v, _ := r.cached()
	return v, nil
}

func (r *Ref[T]) cached() (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.done
}
