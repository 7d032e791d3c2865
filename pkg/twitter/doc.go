// Package twitter adapts the Twitter v1.1 REST API to the scraper.
//
// Requests are authenticated with an application-only bearer token, either
// configured directly or obtained from the consumer key and secret through
// the OAuth2 client credentials grant. Timelines and searches page
// backwards by id (max_id = last id - 1) and stop on a short page.
package twitter
