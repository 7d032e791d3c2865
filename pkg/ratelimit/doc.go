// Package ratelimit paces outgoing API calls.
//
// Both network clients wait on a Limiter before every request so a long
// pagination run stays under the configured requests per minute:
//
//	limiter := ratelimit.NewTokenBucket(60, 1)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
// Hitting the provider's own limit is still reported as a rate limit
// error; the limiter only spaces requests out.
package ratelimit
