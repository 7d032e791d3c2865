package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/scraper"
)

// Feedback levels
const (
	LevelSuccess = "success"
	LevelNotice  = "notice"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Scraper is the part of *scraper.Scraper an import run drives
type Scraper interface {
	Name() string
	ScrapeByTag(ctx context.Context, tag string, filters scraper.Filters) (*scraper.Result, error)
	ScrapeAll(ctx context.Context, filters scraper.Filters) (*scraper.Result, error)
	ScrapePreset(ctx context.Context, name string, overrides scraper.Filters) (*scraper.Result, error)
}

// Outcome is the result of one scrape within an import
type Outcome struct {
	Network string
	Tag     string
	Level   string
	Message string
	Count   int
	Result  *scraper.Result
	Err     error
}

// Report collects the outcomes of an import run, in network order
type Report struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Success is true when no scrape failed or was skipped
func (r *Report) Success() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return false
		}
	}
	return true
}

// Status is the HTTP status of the first unsuccessful outcome
func (r *Report) Status() int {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return errs.HTTPStatus(o.Err)
		}
	}
	return http.StatusOK
}

// Created sums the posts created across outcomes
func (r *Report) Created() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Count
	}
	return total
}

// FailedReport wraps an error raised before any network ran
func FailedReport(err error) *Report {
	return &Report{Outcomes: []Outcome{outcomeFor("", "", nil, err)}}
}

// Importer runs scrapers of several networks for one set of options
type Importer struct {
	scrapers map[string]Scraper
	order    []string
	logger   logger.Logger
}

// New registers scrapers under their network names
func New(log logger.Logger, scrapers ...Scraper) *Importer {
	if log == nil {
		log = logger.GetLogger()
	}
	im := &Importer{
		scrapers: make(map[string]Scraper, len(scrapers)),
		logger:   log.WithField("component", "importer"),
	}
	for _, s := range scrapers {
		if _, dup := im.scrapers[s.Name()]; dup {
			continue
		}
		im.scrapers[s.Name()] = s
		im.order = append(im.order, s.Name())
	}
	return im
}

// Available lists the registered networks
func (im *Importer) Available() []string {
	return append([]string(nil), im.order...)
}

// Import parses raw options and runs them
func (im *Importer) Import(ctx context.Context, values map[string][]string) *Report {
	opts, err := ParseOptions(values, im.order)
	if err != nil {
		im.logger.WithError(err).Warn("rejected import options")
		return FailedReport(err)
	}
	return im.Run(ctx, opts)
}

// Run scrapes every selected network concurrently. Networks are
// independent: a failure on one does not stop the others.
func (im *Importer) Run(ctx context.Context, opts Options) *Report {
	start := time.Now()
	outcomes := make([][]Outcome, len(opts.Scrapers))

	var g errgroup.Group
	for i, name := range opts.Scrapers {
		s, ok := im.scrapers[name]
		if !ok {
			outcomes[i] = []Outcome{outcomeFor(name, "", nil, errs.NewMissingOptionsError("scrapers"))}
			continue
		}
		i := i
		g.Go(func() error {
			outcomes[i] = im.runNetwork(ctx, s, opts)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Duration: time.Since(start)}
	for _, o := range outcomes {
		report.Outcomes = append(report.Outcomes, o...)
	}

	im.logger.InfoWithFields("import finished", map[string]interface{}{
		"networks":    len(opts.Scrapers),
		"created":     report.Created(),
		"status":      report.Status(),
		"duration_ms": report.Duration.Milliseconds(),
	})
	return report
}

// runNetwork picks the request shape: a preset, one scrape per tag, or
// the configured account's posts.
func (im *Importer) runNetwork(ctx context.Context, s Scraper, opts Options) []Outcome {
	filters := opts.Filters()
	name := s.Name()

	switch {
	case opts.Request != "":
		result, err := s.ScrapePreset(ctx, opts.Request, filters)
		return []Outcome{im.record(name, "", result, err)}
	case len(opts.Tags) > 0:
		out := make([]Outcome, 0, len(opts.Tags))
		for _, tag := range opts.Tags {
			result, err := s.ScrapeByTag(ctx, tag, filters)
			out = append(out, im.record(name, tag, result, err))
		}
		return out
	default:
		result, err := s.ScrapeAll(ctx, filters)
		return []Outcome{im.record(name, "", result, err)}
	}
}

func (im *Importer) record(network, tag string, result *scraper.Result, err error) Outcome {
	o := outcomeFor(network, tag, result, err)

	fields := map[string]interface{}{
		"network": network,
		"level":   o.Level,
		"count":   o.Count,
	}
	if tag != "" {
		fields["tag"] = tag
	}
	switch o.Level {
	case LevelError:
		im.logger.WithError(err).ErrorWithFields(o.Message, fields)
	case LevelWarning:
		im.logger.WarnWithFields(o.Message, fields)
	default:
		im.logger.InfoWithFields(o.Message, fields)
	}
	return o
}

func outcomeFor(network, tag string, result *scraper.Result, err error) Outcome {
	o := Outcome{Network: network, Tag: tag, Result: result, Err: err}
	if result != nil {
		o.Count = result.Created
	}

	var reconcileErr *scraper.ReconcileError
	switch {
	case err == nil && o.Count > 0:
		o.Level = LevelSuccess
		o.Message = scrapedMessage(o.Count, network)
	case err == nil:
		o.Level = LevelNotice
		o.Message = fmt.Sprintf("Nothing new from %q.", network)
	case errs.IsHit(err):
		o.Level = LevelNotice
		o.Message = err.Error()
	case errs.TypeOf(err) == errs.ErrorTypeRateLimit:
		o.Level = LevelWarning
		o.Message = err.Error()
	case errors.As(err, &reconcileErr):
		o.Level = LevelError
		o.Message = scrapedMessage(o.Count, network) + " " + err.Error()
	default:
		o.Level = LevelError
		o.Message = err.Error()
	}
	return o
}

func scrapedMessage(count int, network string) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("Scraped %d %s from %q.", count, noun, network)
}
