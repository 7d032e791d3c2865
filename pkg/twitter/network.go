package twitter

import (
	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

const (
	// NetworkName identifies Twitter in records and entities
	NetworkName = "twitter"

	DefaultBaseURL  = "https://api.twitter.com/1.1"
	DefaultTokenURL = "https://api.twitter.com/oauth2/token"

	// MaxCount is the largest page the timeline and search resources serve
	MaxCount = 200

	RepositorySearch   = "search"
	RepositoryStatuses = "statuses"
	MethodTweets       = "tweets"
	MethodUserTimeline = "user_timeline"
)

// Network describes Twitter requests to the scraper
type Network struct {
	adapter    *Adapter
	screenName string
	userID     string
	count      int
}

// NewNetwork builds the Twitter network from a client and its config
func NewNetwork(client *Client, cfg config.TwitterConfig) *Network {
	return &Network{
		adapter:    NewAdapter(client),
		screenName: cfg.ScreenName,
		userID:     cfg.UserID,
		count:      cfg.Count,
	}
}

func (n *Network) Name() string                   { return NetworkName }
func (n *Network) Adapter() scraper.Adapter       { return n.adapter }
func (n *Network) Mapper() scraper.Mapper         { return scraper.MapperFunc(MapTweet) }
func (n *Network) Pagination() scraper.Mode       { return scraper.IDMode }
func (n *Network) CursorKeys() (low, high string) { return "since_id", "max_id" }

func (n *Network) Limits() scraper.Settings {
	return scraper.Settings{PageSizeLimit: scraper.Ptr(MaxCount)}
}

// TagRequest searches a hashtag, restricted to the configured account
// when one is set.
func (n *Network) TagRequest(tag string, filters scraper.Filters) (scraper.Request, error) {
	if tag == "" {
		return scraper.Request{}, errs.NewMissingOptionsError("tag")
	}

	f := n.withDefaults(filters)
	q := "#" + tag
	if from := n.account(f); from != "" {
		q += " AND from:" + from
	}
	delete(f, "screen_name")
	delete(f, "user_id")

	if _, ok := f["include_entities"]; !ok {
		f["include_entities"] = true
	}
	f["q"] = q
	return scraper.Request{
		Network:    NetworkName,
		Repository: RepositorySearch,
		Method:     MethodTweets,
		Filters:    f,
	}, nil
}

// AllRequest reads an account's timeline. An account named in filters
// wins over the configured one; screen names win over user ids.
func (n *Network) AllRequest(filters scraper.Filters) (scraper.Request, error) {
	f := n.withDefaults(filters)
	switch {
	case f.String("screen_name") != "":
		delete(f, "user_id")
	case f.String("user_id") != "":
	case n.screenName != "":
		f["screen_name"] = n.screenName
	case n.userID != "":
		f["user_id"] = n.userID
	default:
		return scraper.Request{}, errs.NewMissingOptionsError("twitter.screen_name", "twitter.user_id")
	}
	return scraper.Request{
		Network:    NetworkName,
		Repository: RepositoryStatuses,
		Method:     MethodUserTimeline,
		Filters:    f,
	}, nil
}

func (n *Network) account(f scraper.Filters) string {
	for _, v := range []string{f.String("screen_name"), f.String("user_id"), n.screenName} {
		if v != "" {
			return v
		}
	}
	return n.userID
}

func (n *Network) withDefaults(filters scraper.Filters) scraper.Filters {
	f := filters.Clone()
	if _, ok := f["count"]; !ok && n.count > 0 {
		f["count"] = n.count
	}
	return f
}
