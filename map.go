package threadpool

import (
	"context"
	"errors"
)

// Map fans out items through fn on p and returns the results in input order
// together with the aggregated error.
// Semantics:
// - Submits one task per item with SubmitContext(ctx, ...); submission stops at the first
//   refusal (terminated pool or ctx done) and that error is part of the result.
// - Waits for every accepted task with GetContext(ctx).
// - Results of failed or unsubmitted items hold the zero value of R.
// - The returned error is errors.Join of all failures (nil if none).
func Map[T, R any](
	ctx context.Context,
	p *Pool,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	futures := make([]*Future[R], 0, len(items))
	var errs []error
	for i := range items {
		item := items[i] // capture
		f, err := SubmitContext(ctx, p, TaskFunc[R](func(c context.Context) (R, error) { return fn(c, item) }))
		if err != nil {
			errs = append(errs, err)
			break
		}
		futures = append(futures, f)
	}

	results := make([]R, len(items))
	for i, f := range futures {
		r, err := f.GetContext(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[i] = r
	}
	return results, errors.Join(errs...)
}
