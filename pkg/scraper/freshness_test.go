package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/models"
)

var footballRequest = Request{
	Network:    "instagram",
	Repository: "tags",
	Method:     "getRecentMedia",
	Filters:    Filters{"tag": "football"},
}

func saveRecordAt(t *testing.T, st RecordStore, req Request, status string, at time.Time) {
	t.Helper()

	filters, err := req.CanonicalFilters()
	require.NoError(t, err)
	ident, err := req.Fingerprint()
	require.NoError(t, err)
	require.NoError(t, st.SaveRecord(context.Background(), &models.ScrapeRecord{
		Ident:      ident,
		Network:    req.Network,
		Repository: req.Repository,
		Method:     req.Method,
		Filters:    filters,
		Status:     status,
		LogDate:    at,
	}))
}

func fixedGate(st RecordStore, window time.Duration, suppressFailures bool, now time.Time) *Gate {
	g := NewGate(st, window, suppressFailures)
	g.now = func() time.Time { return now }
	return g
}

func TestGateMissOnEmptyStore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := fixedGate(setupTestStore(t), time.Hour, true, now)

	fresh, record, err := g.Check(context.Background(), footballRequest)
	require.NoError(t, err)
	assert.False(t, fresh)
	require.NotNil(t, record)
	assert.False(t, record.Persisted())
	assert.Equal(t, models.StatusMiss, record.Status)
	assert.Equal(t, `instagram/tags/getrecentmedia/{"tag":"football"}`, record.Ident)
	assert.Equal(t, `{"tag":"football"}`, record.Filters)
	assert.True(t, record.LogDate.Equal(now))
}

func TestGateWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    string
		age       time.Duration
		window    time.Duration
		suppress  bool
		wantFresh bool
	}{
		{name: "recent success", status: models.StatusOK, age: 30 * time.Minute, window: time.Hour, suppress: true, wantFresh: true},
		{name: "expired success", status: models.StatusOK, age: 2 * time.Hour, window: time.Hour, suppress: true},
		{name: "zero window disables", status: models.StatusOK, age: time.Minute, window: 0, suppress: true},
		{name: "recent failure suppressed", status: models.StatusFail, age: 5 * time.Minute, window: time.Hour, suppress: true, wantFresh: true},
		{name: "recent failure retried", status: models.StatusFail, age: 5 * time.Minute, window: time.Hour, suppress: false},
		{name: "miss records never count", status: models.StatusMiss, age: time.Minute, window: time.Hour, suppress: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := setupTestStore(t)
			saveRecordAt(t, st, footballRequest, tt.status, now.Add(-tt.age))

			fresh, record, err := fixedGate(st, tt.window, tt.suppress, now).Check(context.Background(), footballRequest)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFresh, fresh)
			require.NotNil(t, record)
			if tt.wantFresh {
				assert.True(t, record.Persisted())
				assert.Equal(t, tt.status, record.Status)
			} else {
				assert.False(t, record.Persisted())
			}
		})
	}
}

func TestGateMatchesExactFilters(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := setupTestStore(t)
	saveRecordAt(t, st, footballRequest, models.StatusOK, now.Add(-time.Minute))

	rugby := footballRequest
	rugby.Filters = Filters{"tag": "rugby"}

	fresh, _, err := fixedGate(st, time.Hour, true, now).Check(context.Background(), rugby)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestGateMatchesOnFingerprint(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := setupTestStore(t)

	mixed := footballRequest
	mixed.Filters = Filters{"tag": "Football"}
	saveRecordAt(t, st, mixed, models.StatusOK, now.Add(-time.Minute))

	fresh, record, err := fixedGate(st, time.Hour, true, now).Check(context.Background(), footballRequest)
	require.NoError(t, err)
	assert.True(t, fresh, "filters differing only in case share a fingerprint")
	assert.Equal(t, `{"tag":"Football"}`, record.Filters)
}

func TestGateRejectsIncompleteRequest(t *testing.T) {
	g := NewGate(setupTestStore(t), time.Hour, true)

	_, _, err := g.Check(context.Background(), Request{Network: "instagram"})
	var missing *errs.MissingOptionsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"filters", "method", "repository"}, missing.Keys)
	assert.Equal(t, time.Hour, g.Window())
}
