package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialscraper/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: zlog}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "console info", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "json debug", cfg: &config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "with file", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "scrape.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithField("network", "twitter").
		WithFields(map[string]interface{}{"items": 3}).
		WithError(errors.New("boom")).
		Info("chained")

	out := buf.String()
	assert.Contains(t, out, `"network":"twitter"`)
	assert.Contains(t, out, `"items":3`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "chained")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	child := log.WithField("scope", "child")
	log.Info("parent")
	assert.NotContains(t, buf.String(), "scope")

	buf.Reset()
	child.Info("child")
	assert.Contains(t, buf.String(), `"scope":"child"`)
}

func TestWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)
	assert.Same(t, log, log.WithError(nil))
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(456),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "x"},
	})

	out := buf.String()
	assert.Contains(t, out, `"int64":456`)
	assert.Contains(t, out, `"strings":["a","b"]`)
	assert.Contains(t, out, `"Name":"x"`)
}

func TestScrapeHelpers(t *testing.T) {
	log := NewTestLogger()
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	LogScrapeHit(log, "instagram", "instagram/tags/getrecentmedia/{}", expires)
	LogScrapeResult(log, "instagram", 2, 10, 4, time.Second)

	hit, ok := log.FindMessage("scrape skipped, recent record exists")
	require.True(t, ok)
	assert.Equal(t, "hit", hit.Fields["status"])
	assert.Equal(t, expires, hit.Fields["expires_at"])

	done, ok := log.FindMessage("scrape completed")
	require.True(t, ok)
	assert.Equal(t, 4, done.Fields["created"])
	assert.Equal(t, int64(1000), done.Fields["duration_ms"])
}

func TestTestLoggerScopes(t *testing.T) {
	log := NewTestLogger()

	scoped := log.WithField("network", "twitter")
	scoped.WithError(errors.New("denied")).ErrorWithFields("fetch failed", map[string]interface{}{"page": 2})
	log.Info("plain")

	msgs := log.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ERROR", msgs[0].Level)
	assert.Equal(t, map[string]interface{}{"network": "twitter", "page": 2}, msgs[0].Fields)
	assert.EqualError(t, msgs[0].Error, "denied")
	assert.Nil(t, msgs[1].Fields)
	assert.True(t, log.HasError())
	assert.Contains(t, log.String(), "[ERROR] fetch failed")

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := &zerologLogger{logger: zerolog.New(&buf).Level(zerolog.WarnLevel)}

	log.Info("hidden")
	log.WarnWithFields("shown", map[string]interface{}{"status": 429})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":429`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())
	assert.NotPanics(t, func() {
		WithField("k", "v").Debug("quiet")
		WithFields(map[string]interface{}{"k": 1}).Debug("quiet")
	})
}
