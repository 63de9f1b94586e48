package threadpool

import "context"

// ForEach applies fn to each item on p and waits for all of them.
// It delegates to Map with an empty result type and returns the aggregated error.
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	_, err := Map[T, struct{}](ctx, p, items, func(c context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(c, item)
	})
	return err
}
