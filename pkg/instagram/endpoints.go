package instagram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

const (
	// NetworkName identifies Instagram in records and entities
	NetworkName = "instagram"

	// DefaultBaseURL is the v1 API root
	DefaultBaseURL = "https://api.instagram.com/v1"

	// SandboxMediaLimit is the largest page sandboxed apps may request
	SandboxMediaLimit = 20

	RepositoryTags    = "tags"
	RepositoryUsers   = "users"
	MethodRecentMedia = "getRecentMedia"
	MethodMedia       = "getMedia"
)

// endpoint is a resolved API path with the names of its cursor parameters
type endpoint struct {
	path   string
	minKey string
	maxKey string
	// consumed lists the filters already encoded in path
	consumed []string
}

func resolveEndpoint(call scraper.Call) (endpoint, error) {
	switch {
	case strings.EqualFold(call.Repository, RepositoryTags) && strings.EqualFold(call.Method, MethodRecentMedia):
		tag := call.Filters.String("tag")
		if tag == "" {
			return endpoint{}, errs.NewMissingOptionsError("tag")
		}
		return endpoint{
			path:     "tags/" + url.PathEscape(tag) + "/media/recent",
			minKey:   "min_tag_id",
			maxKey:   "max_tag_id",
			consumed: []string{"tag"},
		}, nil

	case strings.EqualFold(call.Repository, RepositoryUsers) && strings.EqualFold(call.Method, MethodMedia):
		id := call.Filters.String("id")
		if id == "" {
			id = "self"
		}
		return endpoint{
			path:     "users/" + url.PathEscape(id) + "/media/recent",
			minKey:   "min_id",
			maxKey:   "max_id",
			consumed: []string{"id"},
		}, nil
	}

	return endpoint{}, &errs.Error{
		Type:    errs.ErrorTypeConfiguration,
		Message: fmt.Sprintf("unsupported instagram request %s/%s", call.Repository, call.Method),
	}
}

// buildRequest turns a paginated call into an API path and query
func buildRequest(call scraper.Call) (string, url.Values, error) {
	ep, err := resolveEndpoint(call)
	if err != nil {
		return "", nil, err
	}

	skip := make(map[string]bool, len(ep.consumed))
	for _, k := range ep.consumed {
		skip[k] = true
	}

	params := url.Values{}
	for k := range call.Filters {
		if skip[k] {
			continue
		}
		if v := call.Filters.String(k); v != "" {
			params.Set(k, v)
		}
	}
	if n, ok := call.Filters.Int("count"); ok && n > 0 {
		params.Set("count", strconv.Itoa(n))
	}
	if call.Cursor.Low != "" {
		params.Set(ep.minKey, call.Cursor.Low)
	}
	if call.Cursor.High != "" {
		params.Set(ep.maxKey, call.Cursor.High)
	}
	return ep.path, params, nil
}
