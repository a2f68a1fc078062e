package ai

import (
	"context"
	"time"
)

type retryCompleter struct {
	inner    Completer
	attempts int
	backoff  time.Duration
}

// WithRetry wraps a completer so each call is attempted up to attempts times
// with linear backoff between failures. The rest of the pipeline stays
// single-attempt; injecting this wrapper is the only change needed to add a
// retry policy around the gateway.
func WithRetry(inner Completer, attempts int, backoff time.Duration) Completer {
	if inner == nil || attempts <= 1 {
		return inner
	}
	return &retryCompleter{inner: inner, attempts: attempts, backoff: backoff}
}

func (r *retryCompleter) Enabled() bool {
	return r != nil && r.inner.Enabled()
}

func (r *retryCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 && r.backoff > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * r.backoff):
			}
		}
		out, err := r.inner.Complete(ctx, system, user)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}
