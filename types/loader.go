package types

import "context"

/*
FetchFunc is the shape of an upstream lookup the cache can sit in front of.

On a cache miss the memoizing wrapper calls it with the caller's argument and,
if it returns a non-empty value and no error, stores the result.
FetchFunc is always called without any cache lock held; it is free to do
network I/O and should honour ctx.
*/
type FetchFunc[A any, V any] func(ctx context.Context, arg A) (V, error)
