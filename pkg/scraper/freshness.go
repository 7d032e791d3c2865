package scraper

import (
	"context"
	"fmt"
	"time"

	"socialscraper/pkg/models"
	"socialscraper/pkg/store"
)

// RecordStore persists scrape records
type RecordStore interface {
	LatestRecord(ctx context.Context, q store.RecordQuery) (*models.ScrapeRecord, error)
	SaveRecord(ctx context.Context, record *models.ScrapeRecord) error
}

// Gate decides whether a request was already scraped recently.
//
// It is advisory: the check reads the latest record and the caller writes a
// new one only after fetching, so two processes can both pass it for the
// same fingerprint. Reconciliation still prevents duplicate posts.
type Gate struct {
	records  RecordStore
	window   time.Duration
	statuses []string
	now      func() time.Time
}

// NewGate builds a gate with a freshness window; a zero window disables it.
// With suppressFailures, failed attempts also count as recent.
func NewGate(records RecordStore, window time.Duration, suppressFailures bool) *Gate {
	statuses := []string{models.StatusOK}
	if suppressFailures {
		statuses = append(statuses, models.StatusFail)
	}
	return &Gate{
		records:  records,
		window:   window,
		statuses: statuses,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Window is the freshness window
func (g *Gate) Window() time.Duration {
	return g.window
}

// Check returns fresh=true with the matching record when one was logged
// inside the window. Otherwise it returns a new, unsaved record carrying
// the request's identifying fields.
func (g *Gate) Check(ctx context.Context, req Request) (bool, *models.ScrapeRecord, error) {
	if err := req.Validate(); err != nil {
		return false, nil, err
	}

	ident, err := req.Fingerprint()
	if err != nil {
		return false, nil, err
	}
	filters, err := req.CanonicalFilters()
	if err != nil {
		return false, nil, err
	}

	now := g.now()

	if g.window > 0 {
		// fingerprints are lowercased, so "#Football" and "#football"
		// share one record even though their filters differ in case
		latest, err := g.records.LatestRecord(ctx, store.RecordQuery{
			Ident:    ident,
			Statuses: g.statuses,
			Since:    now.Add(-g.window),
		})
		if err != nil {
			return false, nil, fmt.Errorf("failed to look up scrape record: %w", err)
		}
		if latest != nil {
			return true, latest, nil
		}
	}

	return false, &models.ScrapeRecord{
		Ident:      ident,
		Network:    req.Network,
		Repository: req.Repository,
		Method:     req.Method,
		Filters:    filters,
		Status:     models.StatusMiss,
		LogDate:    now,
	}, nil
}
