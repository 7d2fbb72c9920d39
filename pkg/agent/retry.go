package agent

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/kadirpekel/docpixie/pkg/provider"
)

// withRetry calls fn and retries on a *provider.TransientError with
// exponential backoff, up to attempts total tries. AuthError and
// BadRequestError are never retried; a context cancellation aborts
// immediately. The retry loop is logical, one layer above the HTTP
// transport's own retry (internal/transport) — it exists so every Provider
// implementation, including test stubs with no transport underneath,
// honors the same retry budget.
func withRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() (string, error)) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err

		var transient *provider.TransientError
		if !errors.As(err, &transient) {
			return "", err
		}
		if attempt == attempts-1 {
			break
		}

		delay := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}
