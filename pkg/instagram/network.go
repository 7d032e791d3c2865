package instagram

import (
	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

// Network describes Instagram requests to the scraper
type Network struct {
	adapter *Adapter
	userID  string
	count   int
}

// NewNetwork builds the Instagram network from a client and its config
func NewNetwork(client *Client, cfg config.InstagramConfig) *Network {
	userID := cfg.UserID
	if userID == "" {
		userID = "self"
	}
	return &Network{adapter: NewAdapter(client), userID: userID, count: cfg.Count}
}

func (n *Network) Name() string                   { return NetworkName }
func (n *Network) Adapter() scraper.Adapter       { return n.adapter }
func (n *Network) Mapper() scraper.Mapper         { return scraper.MapperFunc(MapMedia) }
func (n *Network) Pagination() scraper.Mode       { return scraper.TokenMode }
func (n *Network) CursorKeys() (low, high string) { return "min_id", "max_id" }

// Limits caps the page size at what sandboxed apps may request
func (n *Network) Limits() scraper.Settings {
	return scraper.Settings{PageSizeLimit: scraper.Ptr(SandboxMediaLimit)}
}

// TagRequest targets the recent media of a hashtag
func (n *Network) TagRequest(tag string, filters scraper.Filters) (scraper.Request, error) {
	if tag == "" {
		return scraper.Request{}, errs.NewMissingOptionsError("tag")
	}
	f := n.withDefaults(filters)
	f["tag"] = tag
	return scraper.Request{
		Network:    NetworkName,
		Repository: RepositoryTags,
		Method:     MethodRecentMedia,
		Filters:    f,
	}, nil
}

// AllRequest targets the configured account's media
func (n *Network) AllRequest(filters scraper.Filters) (scraper.Request, error) {
	f := n.withDefaults(filters)
	f["id"] = n.userID
	return scraper.Request{
		Network:    NetworkName,
		Repository: RepositoryUsers,
		Method:     MethodMedia,
		Filters:    f,
	}, nil
}

// withDefaults fills count. Twitter style account filters are dropped,
// Instagram addresses accounts by id only.
func (n *Network) withDefaults(filters scraper.Filters) scraper.Filters {
	f := filters.Clone()
	delete(f, "user_id")
	delete(f, "screen_name")
	if _, ok := f["count"]; !ok && n.count > 0 {
		f["count"] = n.count
	}
	return f
}
