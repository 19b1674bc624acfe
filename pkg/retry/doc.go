// Package retry provides backoff and retry logic for transient upstream
// failures.
//
// Errors from pkg/errors are classified by type: network, rate limit and
// server errors are retried, everything else fails immediately. Callers can
// supply their own RetryIf, and can attach a server-provided minimum delay
// with WithRetryAfter.
//
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     retry.NewErrorTypeBackoff(time.Second, 30*time.Second, 2),
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (*Page, error) {
//		return c.fetchOnce(ctx, cursor)
//	}, cfg)
package retry
