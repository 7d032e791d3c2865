package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/buger/jsonparser"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

// Adapter serves paginated calls from any v1.1 resource returning tweets
type Adapter struct {
	client *Client
}

// NewAdapter wraps a client
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Call fetches one page of tweets
func (a *Adapter) Call(ctx context.Context, call scraper.Call) (*scraper.Page, error) {
	resource, params, err := buildRequest(call)
	if err != nil {
		return nil, err
	}

	body, err := a.client.Get(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

func buildRequest(call scraper.Call) (string, url.Values, error) {
	if call.Repository == "" || call.Method == "" {
		return "", nil, &errs.Error{
			Type:    errs.ErrorTypeConfiguration,
			Message: fmt.Sprintf("incomplete twitter request %q/%q", call.Repository, call.Method),
		}
	}

	params := url.Values{}
	for k := range call.Filters {
		if v := call.Filters.String(k); v != "" {
			params.Set(k, v)
		}
	}
	if n, ok := call.Filters.Int("count"); ok && n > 0 {
		params.Set("count", strconv.Itoa(n))
	}
	if call.Cursor.Low != "" {
		params.Set("since_id", call.Cursor.Low)
	}
	if call.Cursor.High != "" {
		params.Set("max_id", call.Cursor.High)
	}
	return call.Repository + "/" + call.Method, params, nil
}

// parsePage accepts either a bare array of tweets or a search response
// wrapping them in "statuses".
func parsePage(body []byte) (*scraper.Page, error) {
	statuses := bytes.TrimSpace(body)
	if len(statuses) == 0 {
		return nil, errs.NewParsingError(fmt.Errorf("empty response"), 0)
	}
	if statuses[0] == '{' {
		value, vt, _, err := jsonparser.Get(statuses, "statuses")
		if err != nil {
			return nil, errs.NewParsingError(fmt.Errorf("missing statuses: %w", err), 0)
		}
		if vt != jsonparser.Array {
			return nil, errs.NewParsingError(fmt.Errorf("statuses is %s, want array", vt), 0)
		}
		statuses = value
	}
	if statuses[0] != '[' {
		return nil, errs.NewParsingError(fmt.Errorf("unexpected response shape"), 0)
	}

	page := &scraper.Page{}
	var itemErr error
	_, err := jsonparser.ArrayEach(statuses, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		id, err := tweetID(value)
		if err != nil {
			itemErr = err
			return
		}
		raw := make(json.RawMessage, len(value))
		copy(raw, value)
		page.Items = append(page.Items, scraper.Item{ID: id, Raw: raw})
	})
	if err == nil {
		err = itemErr
	}
	if err != nil {
		return nil, errs.NewParsingError(err, 0)
	}
	return page, nil
}

// tweetID prefers id_str; numeric ids exceed float64 precision
func tweetID(tweet []byte, prefix ...string) (string, error) {
	if id, err := jsonparser.GetString(tweet, append(prefix, "id_str")...); err == nil && id != "" {
		return id, nil
	}
	value, vt, _, err := jsonparser.Get(tweet, append(prefix, "id")...)
	if err != nil || vt != jsonparser.Number {
		return "", fmt.Errorf("tweet without id")
	}
	return string(value), nil
}
