package importer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

// Options select what an import run scrapes
type Options struct {
	// Scrapers are the networks to run, in registration order
	Scrapers []string
	// Request names a configured preset; it takes precedence over Tags
	Request    string
	Count      int
	Tags       []string
	UserID     string
	ScreenName string
}

// ParseOptions reads options from query or form values. Every value may be
// repeated or comma separated.
func ParseOptions(values url.Values, available []string) (Options, error) {
	var opts Options

	scrapers, err := parseScrapers(splitList(values["scrapers"]), available)
	if err != nil {
		return opts, err
	}
	opts.Scrapers = scrapers

	opts.Request = strings.TrimSpace(values.Get("request"))
	opts.UserID = strings.TrimSpace(values.Get("user_id"))
	opts.ScreenName = strings.TrimPrefix(strings.TrimSpace(values.Get("screen_name")), "@")
	opts.Tags = ParseTags(values["tags"]...)

	if raw := strings.TrimSpace(values.Get("count")); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count < 1 {
			return opts, &errs.Error{
				Type:    errs.ErrorTypeConfiguration,
				Message: fmt.Sprintf("bad configuration: count must be a positive integer, got %q", raw),
			}
		}
		opts.Count = count
	}

	return opts, nil
}

// ParseTags splits comma lists into normalized hashtags, dropping blanks
// and duplicates.
func ParseTags(raw ...string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, item := range splitList(raw) {
		tag := scraper.NormalizeTag(item)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Filters are the explicit filters the options add to every request
func (o Options) Filters() scraper.Filters {
	f := make(scraper.Filters)
	if o.Count > 0 {
		f["count"] = o.Count
	}
	if o.UserID != "" {
		f["user_id"] = o.UserID
	}
	if o.ScreenName != "" {
		f["screen_name"] = o.ScreenName
	}
	return f
}

// parseScrapers keeps the chosen networks that are available
func parseScrapers(choices, available []string) ([]string, error) {
	chosen := make(map[string]bool, len(choices))
	for _, c := range choices {
		chosen[strings.ToLower(c)] = true
	}

	var scrapers []string
	for _, name := range available {
		if chosen[name] {
			scrapers = append(scrapers, name)
		}
	}

	if len(scrapers) == 0 {
		quoted := make([]string, len(available))
		for i, name := range available {
			quoted[i] = strconv.Quote(name)
		}
		return nil, fmt.Errorf("%w. Available scrapers are: %s", errs.NewMissingOptionsError("scrapers"), strings.Join(quoted, ", "))
	}
	return scrapers, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
