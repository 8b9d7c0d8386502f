package cache

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/goobie-bot/goobie/api"
	"github.com/goobie-bot/goobie/keys"
	"github.com/goobie-bot/goobie/types"
	"golang.org/x/sync/singleflight"
)

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	name         string
	singleFlight bool
	logger       *slog.Logger
}

// WithName sets the function name used by the default key. Defaults to the category.
func WithName(name string) WrapOption {
	return func(c *wrapConfig) { c.name = name }
}

/*
WithSingleFlight coalesces concurrent misses for the same key into one fetch.

Without it, two callers missing the same cold key both call the upstream.
That is harmless for idempotent reads, so it stays opt-in.
*/
func WithSingleFlight() WrapOption {
	return func(c *wrapConfig) { c.singleFlight = true }
}

// WithWrapLogger sets the logger for cache decisions. Defaults to slog.Default().
func WithWrapLogger(l *slog.Logger) WrapOption {
	return func(c *wrapConfig) { c.logger = l }
}

/*
Wrap puts c in front of fetch.

For every call:
 1. Build the key with keyFn, or keys.Default(name, arg) when keyFn is nil.
 2. On a hit, return the cached value without calling fetch.
 3. On a miss, call fetch. No cache lock is held while it runs.
 4. If fetch succeeded with a non-empty result, store it under category.
 5. Return whatever fetch returned.

With WithSingleFlight the shared fetch runs on a context detached from the
caller that started it, so one caller giving up does not fail the others.
Each caller still returns ctx.Err() as soon as its own ctx is done.

Only the lookup and the store are atomic; the whole sequence is not. A cached
value of a type other than V is treated as a miss and overwritten.
*/
func Wrap[A any, V any](c api.Cache, category string, keyFn func(A) string, fetch types.FetchFunc[A, V], opts ...WrapOption) types.FetchFunc[A, V] {
	cfg := wrapConfig{name: category}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if keyFn == nil {
		name := cfg.name
		keyFn = func(arg A) string { return keys.Default(name, []any{arg}, nil) }
	}

	var group *singleflight.Group
	if cfg.singleFlight {
		group = &singleflight.Group{}
	}

	return func(ctx context.Context, arg A) (V, error) {
		key := keyFn(arg)
		if v, ok := GetAs[V](c, key); ok {
			return v, nil
		}

		load := func(ctx context.Context) (V, error) {
			res, err := fetch(ctx, arg)
			if err != nil {
				return res, err
			}
			if isEmpty(res) {
				cfg.logger.Debug("fetch returned nothing, not caching", "key", key)
				return res, nil
			}
			c.Set(key, res, category)
			return res, nil
		}

		if group == nil {
			return load(ctx)
		}
		// The shared fetch outlives any one caller; each caller waits on its own ctx.
		flight := context.WithoutCancel(ctx)
		ch := group.DoChan(key, func() (any, error) { return load(flight) })
		select {
		case r := <-ch:
			if r.Shared {
				cfg.logger.Debug("fetch shared with concurrent caller", "key", key)
			}
			res, _ := r.Val.(V)
			return res, r.Err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

// isEmpty reports whether v is a nil, zero or zero-length value not worth caching.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String, reflect.Array, reflect.Chan:
		if rv.Len() == 0 {
			return true
		}
	}
	return rv.IsZero()
}
