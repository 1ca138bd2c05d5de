package reshard

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"
)

// OptimizeAll runs Optimize for each name with at most concurrency
// workflows in flight. A failing index never stops the others. Duplicate
// names run once. Results follow the first appearance of each name, nil for
// failed indices; the returned error joins every failure.
func (o *Orchestrator) OptimizeAll(ctx context.Context, names []string, concurrency int) ([]*Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	uniq := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}

	results := make([]*Result, len(uniq))
	errs := make([]error, len(uniq))

	// No WithContext: one failure must not cancel the other workflows.
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, name := range uniq {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &TransientClientError{Op: "optimize " + name, Err: err}
				return nil
			}
			results[i], errs[i] = o.Optimize(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return results, stderrors.Join(errs...)
}
