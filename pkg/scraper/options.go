package scraper

import (
	"time"

	"socialscraper/pkg/config"
)

// Options are the resolved, read-only settings of one Scraper
type Options struct {
	Record           bool
	RecordExpires    time.Duration
	SuppressFailures bool
	MaxPages         int
	// PageSizeLimit caps the count filter, 0 means no cap
	PageSizeLimit int
	Origin        string
	Presets       map[string]Request
}

// Settings is one configuration tier. Nil fields defer to lower tiers;
// presets are merged by name.
type Settings struct {
	Record           *bool
	RecordExpires    *time.Duration
	SuppressFailures *bool
	MaxPages         *int
	PageSizeLimit    *int
	Origin           *string
	Presets          map[string]Request
}

// Ptr returns a pointer to v, for filling Settings
func Ptr[T any](v T) *T {
	return &v
}

// DefaultSettings is the lowest tier
func DefaultSettings() Settings {
	return Settings{
		Record:           Ptr(true),
		RecordExpires:    Ptr(time.Hour),
		SuppressFailures: Ptr(true),
		MaxPages:         Ptr(0),
		PageSizeLimit:    Ptr(0),
		Origin:           Ptr("socialscraper"),
	}
}

// SettingsFromConfig builds the explicit tier for network from the app config
func SettingsFromConfig(cfg *config.Config, network string) Settings {
	s := Settings{
		Record:           Ptr(cfg.Scraper.Record),
		RecordExpires:    Ptr(cfg.Scraper.RecordExpires),
		SuppressFailures: Ptr(cfg.Scraper.SuppressFailures),
		MaxPages:         Ptr(cfg.Scraper.MaxPages),
		Presets:          make(map[string]Request),
	}
	if cfg.Scraper.Origin != "" {
		s.Origin = Ptr(cfg.Scraper.Origin)
	}

	for name, preset := range cfg.Requests {
		spec, ok := preset[network]
		if !ok {
			continue
		}
		s.Presets[name] = Request{
			Network:    network,
			Repository: spec.Repository,
			Method:     spec.Method,
			Filters:    Filters(spec.Filters).Clone(),
		}
	}
	return s
}

// ResolveOptions merges the default, explicit and immutable tiers, later
// tiers winning. It runs once when a Scraper is built.
func ResolveOptions(defaults, explicit, immutable Settings) Options {
	var o Options
	o.Presets = make(map[string]Request)

	for _, tier := range []Settings{defaults, explicit, immutable} {
		if tier.Record != nil {
			o.Record = *tier.Record
		}
		if tier.RecordExpires != nil {
			o.RecordExpires = *tier.RecordExpires
		}
		if tier.SuppressFailures != nil {
			o.SuppressFailures = *tier.SuppressFailures
		}
		if tier.MaxPages != nil {
			o.MaxPages = *tier.MaxPages
		}
		if tier.PageSizeLimit != nil {
			o.PageSizeLimit = *tier.PageSizeLimit
		}
		if tier.Origin != nil {
			o.Origin = *tier.Origin
		}
		for name, req := range tier.Presets {
			o.Presets[name] = req
		}
	}
	return o
}
