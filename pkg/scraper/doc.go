// Package scraper holds the network-independent scrape pipeline.
//
// A Scraper takes a Request (network, repository, method, filters) and:
//
//  1. asks the Gate whether an identical request was logged inside the
//     freshness window, and stops with an *errors.HitError if so;
//  2. drives a Paginator over the network's Adapter until the API runs out
//     of pages, discarding everything if any call fails;
//  3. hands the raw items to the Reconciler, which creates missing tags,
//     authors and posts by natural key and never touches stored posts;
//  4. saves a ScrapeRecord with the outcome.
//
// Networks plug in through the Network interface; see the instagram and
// twitter packages.
package scraper
