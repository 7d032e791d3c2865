package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCredentialGuide prints how to obtain the API secrets of a network
func WriteCredentialGuide(w io.Writer, network string) error {
	var steps []string
	switch network {
	case NetworkInstagram:
		steps = []string{
			"🔑 INSTAGRAM ACCESS TOKEN",
			"",
			"1. Register a client application in the Instagram developer portal",
			"2. Authorize it for your account with the basic and public_content scopes",
			"3. Copy the access_token returned by the OAuth redirect",
			"",
			"   Sandbox clients see at most 20 items per page.",
			"   Also accepted from SOCIALSCRAPER_INSTAGRAM_ACCESS_TOKEN.",
		}
	case NetworkTwitter:
		steps = []string{
			"🔑 TWITTER APPLICATION KEYS",
			"",
			"1. Create an application in the Twitter developer portal",
			"2. Open its 'Keys and tokens' page",
			"3. Copy the consumer key and consumer secret",
			"   or generate an application bearer token",
			"",
			"   Consumer keys are exchanged for a bearer token on the first request.",
			"   Also accepted from SOCIALSCRAPER_TWITTER_CONSUMER_KEY,",
			"   SOCIALSCRAPER_TWITTER_CONSUMER_SECRET or SOCIALSCRAPER_TWITTER_BEARER_TOKEN.",
		}
	default:
		return fmt.Errorf("unsupported network %q", network)
	}

	rule := strings.Repeat("=", 72)
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n\n⚠️  These secrets act on behalf of your application. They are stored encrypted.\n", rule, strings.Join(steps, "\n"), rule)
	return err
}
