package embeddings

import (
	"context"
	"fmt"
	"sync"
)

// lazyCell holds an expensive, reusable, read-mostly resource with an
// exactly-once initialization discipline. The first caller triggers the load
// in a background goroutine; concurrent callers block until the load
// completes or their context expires. A caller that gives up waiting does
// not cancel the load, so later callers still get the warmed resource. Load
// failure is sticky for the process lifetime.
type lazyCell[T any] struct {
	load func() (T, error)

	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newLazyCell[T any](load func() (T, error)) *lazyCell[T] {
	return &lazyCell[T]{
		load: load,
		done: make(chan struct{}),
	}
}

// get returns the loaded resource, triggering the load on first use.
func (c *lazyCell[T]) get(ctx context.Context) (T, error) {
	c.once.Do(func() {
		go func() {
			c.value, c.err = c.load()
			close(c.done)
		}()
	})

	select {
	case <-c.done:
		if c.err != nil {
			var zero T
			return zero, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, c.err)
		}
		return c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: waiting for model load: %v", ErrEmbeddingUnavailable, ctx.Err())
	}
}

// loaded reports whether the load has completed, without blocking or
// triggering it.
func (c *lazyCell[T]) loaded() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
