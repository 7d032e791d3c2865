package retry

import (
	"context"
	"math/rand"
	"time"

	"socialscraper/pkg/config"
)

// BackoffStrategy computes the delay before the next attempt
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles BaseDelay on every attempt up to MaxDelay.
// JitterFactor moves the delay by up to that fraction either way, so the
// Instagram and Twitter clients do not retry in step.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// NewExponentialBackoff reads the delays from the retry settings; unset
// values fall back to 1s and 30s.
func NewExponentialBackoff(settings config.RetryConfig) *ExponentialBackoff {
	b := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.2,
	}
	if settings.BaseDelay > 0 {
		b.BaseDelay = settings.BaseDelay
	}
	if settings.MaxDelay > 0 {
		b.MaxDelay = settings.MaxDelay
	}
	return b
}

// NextDelay is zero before the first retry
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || b.BaseDelay <= 0 {
		return 0
	}

	delay := b.BaseDelay
	for i := 1; i < attempt && (b.MaxDelay <= 0 || delay < b.MaxDelay); i++ {
		delay *= 2
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		delay = b.MaxDelay
	}

	if b.JitterFactor > 0 {
		spread := float64(delay) * b.JitterFactor
		delay += time.Duration(spread * (2*rand.Float64() - 1))
	}
	return max(delay, 0)
}

// Wait sleeps for delay unless ctx ends first
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
