package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

// State is a step of a scrape run
type State string

const (
	StateIdle           State = "idle"
	StateFreshnessCheck State = "freshness_check"
	StateHit            State = "hit"
	StateFetching       State = "fetching"
	StateReconciling    State = "reconciling"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Network holds what differs between social networks: the request shapes,
// the adapter and mapper, and the filter keys used as cursors.
type Network interface {
	Name() string
	Adapter() Adapter
	Mapper() Mapper
	Pagination() Mode
	// CursorKeys names the filters holding the lower and upper bounds
	CursorKeys() (low, high string)
	TagRequest(tag string, filters Filters) (Request, error)
	AllRequest(filters Filters) (Request, error)
	// Limits is the immutable configuration tier
	Limits() Settings
}

// Store is everything a Scraper persists
type Store interface {
	RecordStore
	EntityStore
	LatestPost(ctx context.Context, network string) (*models.Post, error)
}

// Result describes a finished scrape run
type Result struct {
	Network     string
	Fingerprint string
	State       State
	Record      *models.ScrapeRecord
	Posts       []*models.Post
	Created     int
	Pages       int
	Items       int
}

// Scraper runs freshness check, pagination and reconciliation for one
// network.
type Scraper struct {
	network    Network
	store      Store
	gate       *Gate
	reconciler *Reconciler
	opts       Options
	logger     logger.Logger
	flight     singleflight.Group
	newID      func() string

	mu    sync.Mutex
	calls map[string]*flightCall
	seq   uint64
}

// flightCall owns the context of one shared run. It is cancelled only
// when every caller waiting on the run has gone away.
type flightCall struct {
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New builds a scraper; options are resolved once from the defaults, the
// explicit tier and the network's limits.
func New(network Network, st Store, explicit Settings, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("network", network.Name())
	opts := ResolveOptions(DefaultSettings(), explicit, network.Limits())

	return &Scraper{
		network:    network,
		store:      st,
		gate:       NewGate(st, opts.RecordExpires, opts.SuppressFailures),
		reconciler: NewReconciler(network.Name(), st, network.Mapper(), log),
		opts:       opts,
		logger:     log,
		newID:      uuid.NewString,
		calls:      make(map[string]*flightCall),
	}
}

// Name is the network name
func (s *Scraper) Name() string {
	return s.network.Name()
}

// Options returns the resolved options
func (s *Scraper) Options() Options {
	return s.opts
}

// ScrapeByTag fetches recent posts with a hashtag
func (s *Scraper) ScrapeByTag(ctx context.Context, tag string, filters Filters) (*Result, error) {
	req, err := s.network.TagRequest(NormalizeTag(tag), filters)
	if err != nil {
		return nil, err
	}
	return s.Scrape(ctx, req)
}

// ScrapeAll fetches the configured account's posts
func (s *Scraper) ScrapeAll(ctx context.Context, filters Filters) (*Result, error) {
	req, err := s.network.AllRequest(filters)
	if err != nil {
		return nil, err
	}
	return s.Scrape(ctx, req)
}

// ScrapePreset runs a named request from the configuration; overrides
// replace the preset's filters key by key.
func (s *Scraper) ScrapePreset(ctx context.Context, name string, overrides Filters) (*Result, error) {
	preset, ok := s.opts.Presets[name]
	if !ok {
		return nil, errs.NewMissingOptionsError("requests." + name + "." + s.Name())
	}

	req := preset
	req.Filters = preset.Filters.Clone()
	for k, v := range overrides {
		req.Filters[k] = v
	}
	return s.Scrape(ctx, req)
}

// Scrape runs one request. A recent identical request yields a
// *errors.HitError and a Result in StateHit. Fetch failures are recorded
// and returned. Reconciliation failures come back as a *ReconcileError
// alongside a Result listing the posts that did reconcile.
//
// Concurrent calls with the same fingerprint share a single run.
func (s *Scraper) Scrape(ctx context.Context, req Request) (*Result, error) {
	req.Network = s.network.Name()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fingerprint, err := req.Fingerprint()
	if err != nil {
		return nil, err
	}

	call := s.join(fingerprint)
	defer s.leave(fingerprint, call)

	ch := s.flight.DoChan(call.key, func() (interface{}, error) {
		return s.run(call.ctx, req, fingerprint)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.DebugWithFields("joined in-flight scrape", map[string]interface{}{
				"fingerprint": fingerprint,
			})
		}
		result, _ := res.Val.(*Result)
		return result, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// join registers the caller on the run for fingerprint, starting a new
// call when none is pending.
func (s *Scraper) join(fingerprint string) *flightCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[fingerprint]
	if !ok {
		s.seq++
		ctx, cancel := context.WithCancel(context.Background())
		call = &flightCall{
			key:    fmt.Sprintf("%s#%d", fingerprint, s.seq),
			ctx:    ctx,
			cancel: cancel,
		}
		s.calls[fingerprint] = call
	}
	call.waiters++
	return call
}

// leave drops the caller; the last one out cancels the run's context
func (s *Scraper) leave(fingerprint string, call *flightCall) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if s.calls[fingerprint] == call {
		delete(s.calls, fingerprint)
	}
}

func (s *Scraper) run(ctx context.Context, req Request, fingerprint string) (*Result, error) {
	scrapeID := s.newID()
	log := s.logger.WithFields(map[string]interface{}{
		"fingerprint": fingerprint,
		"scrape_id":   scrapeID,
	})
	result := &Result{Network: req.Network, Fingerprint: fingerprint, State: StateFreshnessCheck}
	start := time.Now()

	record, hit, err := s.checkFreshness(ctx, req, result)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	if hit != nil {
		logger.LogScrapeHit(log, req.Network, fingerprint, hit.ExpiresAt)
		return result, hit
	}
	record.ScrapeID = scrapeID
	record.Origin = s.opts.Origin
	result.Record = record

	result.State = StateFetching
	items, err := s.fetch(ctx, req, result)
	if err != nil {
		result.State = StateFailed
		record.MarkFailed(err)
		s.saveRecord(ctx, record, log)
		log.WithError(err).ErrorWithFields("scrape failed", map[string]interface{}{
			"pages":      result.Pages,
			"error_type": string(errs.TypeOf(err)),
		})
		return result, err
	}

	result.State = StateReconciling
	reconciled, recErr := s.reconciler.Reconcile(ctx, items)
	if reconciled != nil {
		result.Posts = reconciled.Posts
		result.Created = reconciled.Created
	}

	record.Status = models.StatusOK
	var partial *ReconcileError
	if recErr != nil && errors.As(recErr, &partial) {
		record.Message = partial.Error()
	} else if recErr != nil {
		result.State = StateFailed
		record.MarkFailed(recErr)
	}
	s.saveRecord(ctx, record, log)

	if result.State == StateFailed {
		return result, recErr
	}
	result.State = StateDone
	logger.LogScrapeResult(log, req.Network, result.Pages, result.Items, result.Created, time.Since(start))
	return result, recErr
}

// checkFreshness returns the record to fill in, or a hit error
func (s *Scraper) checkFreshness(ctx context.Context, req Request, result *Result) (*models.ScrapeRecord, *errs.HitError, error) {
	if !s.opts.Record {
		ident, _ := req.Fingerprint()
		filters, _ := req.CanonicalFilters()
		return &models.ScrapeRecord{
			Ident:      ident,
			Network:    req.Network,
			Repository: req.Repository,
			Method:     req.Method,
			Filters:    filters,
			Status:     models.StatusMiss,
			LogDate:    time.Now().UTC(),
		}, nil, nil
	}

	fresh, record, err := s.gate.Check(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if fresh {
		result.State = StateHit
		result.Record = record
		return nil, &errs.HitError{
			Fingerprint: result.Fingerprint,
			ExpiresAt:   record.ExpiresAt(s.opts.RecordExpires),
		}, nil
	}
	return record, nil, nil
}

// fetch translates the request into a paginated call and collects items
func (s *Scraper) fetch(ctx context.Context, req Request, result *Result) ([]Item, error) {
	call, opts, err := s.prepareCall(ctx, req)
	if err != nil {
		return nil, err
	}

	items, pages, err := FetchAll(ctx, s.network.Adapter(), call, opts)
	result.Pages = pages
	if err != nil {
		return nil, err
	}
	result.Items = len(items)
	return items, nil
}

func (s *Scraper) prepareCall(ctx context.Context, req Request) (Call, PaginateOptions, error) {
	lowKey, highKey := s.network.CursorKeys()
	filters := req.Filters.Clone()

	cursor := Cursor{Low: filters.String(lowKey), High: filters.String(highKey)}
	delete(filters, lowKey)
	delete(filters, highKey)

	if cursor.Low == "" {
		latest, err := s.store.LatestPost(ctx, req.Network)
		if err != nil {
			return Call{}, PaginateOptions{}, fmt.Errorf("failed to load latest post: %w", err)
		}
		if latest != nil {
			cursor.Low = latest.ExternalID
		}
	}

	pageSize, _ := filters.Int("count")
	if limit := s.opts.PageSizeLimit; limit > 0 && pageSize > limit {
		pageSize = limit
	}
	if pageSize > 0 {
		filters["count"] = pageSize
	} else {
		delete(filters, "count")
	}

	call := Call{
		Repository: req.Repository,
		Method:     req.Method,
		Filters:    filters,
		Cursor:     cursor,
	}
	opts := PaginateOptions{
		Mode:     s.network.Pagination(),
		PageSize: pageSize,
		MaxPages: s.opts.MaxPages,
	}
	return call, opts, nil
}

func (s *Scraper) saveRecord(ctx context.Context, record *models.ScrapeRecord, log logger.Logger) {
	if !s.opts.Record {
		return
	}
	// the record is written even when ctx was cancelled mid-fetch
	if err := s.store.SaveRecord(context.WithoutCancel(ctx), record); err != nil {
		log.WithError(err).Error("failed to save scrape record")
	}
}
