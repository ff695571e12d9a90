package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the value for a missing key. It is supplied by the
// caller and is the only place the cache layer performs external work.
// Implementations should honor ctx cancellation.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Group de-duplicates concurrent computations for the same key: while a
// computation is in flight, every caller for that key attaches to the same
// outcome instead of starting its own. The in-flight record is dropped the
// instant the computation resolves, so a later call starts fresh.
//
// Built on golang.org/x/sync/singleflight with a typed result and context
// support: a waiter whose context expires detaches with ctx.Err() while the
// computation itself keeps running for the remaining waiters.
type Group[V any] struct {
	sf singleflight.Group
}

// Do executes fn under key, coalescing concurrent calls.
// All callers attached to the same flight observe an identical value/error
// pair. If fn fails, the error reaches every waiter and nothing is retained,
// so the next call for the key triggers a new attempt.
func (g *Group[V]) Do(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	ch := g.sf.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Forget drops the in-flight record for key, if any, so the next Do call
// starts a fresh computation instead of attaching to the current one.
func (g *Group[V]) Forget(key string) {
	g.sf.Forget(key)
}
