package cache

import (
	"golang.org/x/sync/singleflight"
)

// Loader fronts a cache with a compute function. Concurrent misses on the
// same key share one computation.
type Loader[T any] struct {
	cache Store[T]
	group singleflight.Group
}

// NewLoader wraps c.
func NewLoader[T any](c Store[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Get returns the cached value for key or computes, stores and returns it.
// Errors are not cached. The bool reports a cache hit.
func (l *Loader[T]) Get(key string, compute func() (T, error)) (T, bool, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}
	v, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Invalidate drops every entry whose key starts with prefix.
func (l *Loader[T]) Invalidate(prefix string) int {
	return l.cache.DeletePrefix(prefix)
}
