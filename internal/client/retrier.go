package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/olivere/elastic/v7"
)

// idempotentRetrier retries failed GET and HEAD requests with exponential
// backoff. Mutating requests are never retried: a PUT or POST that failed on
// the wire may still have been applied by the cluster.
type idempotentRetrier struct {
	backoff    elastic.Backoff
	maxRetries int
}

func newIdempotentRetrier(maxRetries int) *idempotentRetrier {
	return &idempotentRetrier{
		backoff:    elastic.NewExponentialBackoff(100*time.Millisecond, 5*time.Second),
		maxRetries: maxRetries,
	}
}

// Retry implements elastic.Retrier.
func (r *idempotentRetrier) Retry(ctx context.Context, retry int, req *http.Request, resp *http.Response, err error) (time.Duration, bool, error) {
	// Fail hard when nothing is listening
	if errors.Is(err, syscall.ECONNREFUSED) {
		return 0, false, fmt.Errorf("%w: %w", ErrClusterDown, err)
	}
	if req == nil || !isIdempotent(req.Method) {
		return 0, false, nil
	}
	if retry >= r.maxRetries {
		return 0, false, nil
	}
	wait, ok := r.backoff.Next(retry)
	return wait, ok, nil
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
