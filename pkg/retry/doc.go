// Package retry re-runs transient API calls with backoff.
//
// Scrapes are not retried by default: MaxAttempts is 1, and rate limit,
// auth and not-found errors are never retried because the caller's
// scheduler decides when to try again. Raising retry.max_attempts lets
// network and 5xx failures be retried inside a single request:
//
//	cfg := retry.FromSettings(appConfig.Retry, log)
//	body, err := retry.DoWithResult(ctx, fetch, cfg)
package retry
