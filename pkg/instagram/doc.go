// Package instagram adapts the Instagram v1 API to the scraper.
//
// Client issues authenticated GET requests, paced by a ratelimit.Limiter
// and mapping the meta envelope to socialscraper/pkg/errors types. Adapter
// pages through the tag and user media endpoints using the opaque
// next_max_tag_id / next_max_id tokens. MapMedia turns a media payload into
// a post with its author and tags; Thumbnail and URL read derived fields
// from a stored post's raw payload.
//
//	client := instagram.NewClient(cfg.Instagram, limiter, retryCfg, log)
//	s := scraper.New(instagram.NewNetwork(client, cfg.Instagram), st, settings, log)
//	result, err := s.ScrapeByTag(ctx, "#football", nil)
package instagram
