package instagram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/scraper"
)

// Adapter serves paginated calls from the media endpoints
type Adapter struct {
	client *Client
}

// NewAdapter wraps a client
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Call fetches one page of media
func (a *Adapter) Call(ctx context.Context, call scraper.Call) (*scraper.Page, error) {
	path, params, err := buildRequest(call)
	if err != nil {
		return nil, err
	}

	body, err := a.client.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return parsePage(body)
}

// parsePage reads the data array and the next-page token
func parsePage(body []byte) (*scraper.Page, error) {
	data, dataType, _, err := jsonparser.Get(body, "data")
	if err != nil {
		return nil, errs.NewParsingError(fmt.Errorf("missing data: %w", err), 0)
	}
	if dataType != jsonparser.Array {
		return nil, errs.NewParsingError(fmt.Errorf("data is %s, want array", dataType), 0)
	}

	page := &scraper.Page{}
	var itemErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if itemErr != nil {
			return
		}
		id, err := jsonparser.GetString(value, "id")
		if err != nil {
			itemErr = fmt.Errorf("media without id: %w", err)
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

	// the tags endpoint pages with next_max_tag_id, users with next_max_id
	for _, key := range []string{"next_max_tag_id", "next_max_id"} {
		if next, err := jsonparser.GetString(body, "pagination", key); err == nil && next != "" {
			page.Next = next
			break
		}
	}
	return page, nil
}
