package main

import (
	"fmt"
	"sort"

	"go.uber.org/dig"

	"socialscraper/pkg/config"
	"socialscraper/pkg/importer"
	"socialscraper/pkg/instagram"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/ratelimit"
	"socialscraper/pkg/retry"
	"socialscraper/pkg/scraper"
	"socialscraper/pkg/store"
	"socialscraper/pkg/twitter"
)

// networkScrapers adds zero or one scraper to the "scrapers" group
type networkScrapers struct {
	dig.Out

	Scrapers []importer.Scraper `group:"scrapers,flatten"`
}

type importerParams struct {
	dig.In

	Logger   logger.Logger
	Scrapers []importer.Scraper `group:"scrapers"`
}

func ProvideLogger(cfg *config.Config) (logger.Logger, error) {
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return logger.GetLogger(), nil
}

func ProvideStore(cfg *config.Config, log logger.Logger) (*store.GormStore, error) {
	return store.Open(cfg.Database.Path, cfg.Database.Debug, log)
}

func ProvideRetry(cfg *config.Config, log logger.Logger) *retry.Config {
	return retry.FromSettings(cfg.Retry, log)
}

// newLimiter gives every network its own request budget
func newLimiter(cfg *config.Config) ratelimit.Limiter {
	return ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
}

func ProvideInstagramScraper(cfg *config.Config, st *store.GormStore, retryCfg *retry.Config, log logger.Logger) networkScrapers {
	if !cfg.Instagram.Enabled {
		return networkScrapers{}
	}
	client := instagram.NewClient(cfg.Instagram, newLimiter(cfg), retryCfg, log)
	network := instagram.NewNetwork(client, cfg.Instagram)
	s := scraper.New(network, st, scraper.SettingsFromConfig(cfg, instagram.NetworkName), log)
	return networkScrapers{Scrapers: []importer.Scraper{s}}
}

func ProvideTwitterScraper(cfg *config.Config, st *store.GormStore, retryCfg *retry.Config, log logger.Logger) networkScrapers {
	if !cfg.Twitter.Enabled {
		return networkScrapers{}
	}
	client := twitter.NewClient(cfg.Twitter, newLimiter(cfg), retryCfg, log)
	network := twitter.NewNetwork(client, cfg.Twitter)
	s := scraper.New(network, st, scraper.SettingsFromConfig(cfg, twitter.NetworkName), log)
	return networkScrapers{Scrapers: []importer.Scraper{s}}
}

// ProvideImporter registers the grouped scrapers by name; dig does not
// keep group order.
func ProvideImporter(p importerParams) *importer.Importer {
	scrapers := append([]importer.Scraper(nil), p.Scrapers...)
	sort.Slice(scrapers, func(i, j int) bool { return scrapers[i].Name() < scrapers[j].Name() })
	return importer.New(p.Logger, scrapers...)
}

func ProvideHandler(im *importer.Importer, log logger.Logger) *importer.Handler {
	return importer.NewHandler(im, log)
}

// BuildContainer wires every service around an already loaded config
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name string
		fn   interface{}
	}{
		{"config", func() *config.Config { return cfg }},
		{"logger", ProvideLogger},
		{"store", ProvideStore},
		{"retry", ProvideRetry},
		{"instagram scraper", ProvideInstagramScraper},
		{"twitter scraper", ProvideTwitterScraper},
		{"importer", ProvideImporter},
		{"handler", ProvideHandler},
	}
	for _, p := range providers {
		if err := container.Provide(p.fn); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}
