// Package logger provides the structured logging interface used across
// socialscraper.
//
// It wraps zerolog with a small interface that supports leveled messages,
// field maps, and a process-wide logger:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("network", "instagram")
//	log.InfoWithFields("scrape completed", map[string]interface{}{
//	    "items": 40,
//	})
//
// Output goes to stderr, as colored console lines by default or JSON when
// Format is "json". When File is set, entries are also appended to it.
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
