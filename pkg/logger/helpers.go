package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogScrapeHit logs a scrape skipped because a recent record exists
func LogScrapeHit(log Logger, network, fingerprint string, expiresAt time.Time) {
	log.InfoWithFields("scrape skipped, recent record exists", map[string]interface{}{
		"network":     network,
		"fingerprint": fingerprint,
		"expires_at":  expiresAt,
		"status":      "hit",
	})
}

// LogScrapeResult logs the outcome of a completed fetch and reconcile
func LogScrapeResult(log Logger, network string, pages, items, created int, duration time.Duration) {
	log.InfoWithFields("scrape completed", map[string]interface{}{
		"network":     network,
		"pages":       pages,
		"items":       items,
		"created":     created,
		"duration_ms": duration.Milliseconds(),
		"status":      "ok",
	})
}

// LogRateLimit logs rate limiting events
func LogRateLimit(log Logger, endpoint string, waited time.Duration) {
	log.WithFields(map[string]interface{}{
		"endpoint":  endpoint,
		"waited_ms": waited.Milliseconds(),
		"action":    "rate_limited",
	}).Debug("waited for request slot")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	log := GetLogger().WithField("component", component)
	if len(config) > 0 {
		log = log.WithFields(config)
	}
	log.Info("component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
