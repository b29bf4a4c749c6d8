package lazy

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch resolves refs concurrently with at most limit fetches in flight
// (limit <= 0 means unbounded). Nil, duplicate, and already-resolved refs
// are skipped. It returns the first error encountered.
func Prefetch[T any](ctx context.Context, limit int, refs ...*Ref[T]) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	seen := make(map[*Ref[T]]struct{}, len(refs))
	for _, r := range refs {
		if r == nil || r.Resolved() {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		g.Go(func() error {
			_, err := r.Resolve(ctx)
			return err
		})
	}
	return g.Wait()
}
