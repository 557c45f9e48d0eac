// Package querycache caches server resources on the client side. Entries
// are never patched locally: a mutation invalidates the affected keys and
// the next read goes back to the server.
package querycache

import (
	"context"
	"strings"
)

// Well-known key roots.
const (
	KeySpecialists      = "specialists"
	KeySpecialistMedia  = "specialist-media"
	KeyServiceOfferings = "service-offerings"
	KeyPlatformFees     = "platform-fees"
	KeyUsers            = "users"
)

const sep = ":"

// Key joins parts into a hierarchical key, e.g. specialist-media:<id>.
func Key(parts ...string) string {
	return strings.Join(parts, sep)
}

type Cache interface {
	// Get decodes the entry at key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	// Invalidate drops key and every key below it and advances the
	// generation.
	Invalidate(ctx context.Context, prefix string) error
	// Generation changes on every Invalidate.
	Generation(ctx context.Context) (uint64, error)
	// SetAt stores v only while the generation is still gen. It reports
	// whether the value was stored.
	SetAt(ctx context.Context, key string, v any, gen uint64) (bool, error)
}

func matches(key, prefix string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+sep)
}

// Fetch returns the cached value at key or loads, stores and returns it.
// Cache errors are not fatal; the loader result wins. A result loaded while
// an invalidation ran is returned but not stored.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if ok, err := c.Get(ctx, key, &v); err == nil && ok {
		return v, nil
	}

	gen, genErr := c.Generation(ctx)
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if genErr == nil {
		_, _ = c.SetAt(ctx, key, v, gen)
	}
	return v, nil
}
