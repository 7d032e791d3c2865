package scraper

import (
	"context"
	"encoding/json"
	"strconv"
)

// Mode selects how the next page is requested
type Mode int

const (
	// TokenMode follows an opaque next-page token from each response
	TokenMode Mode = iota
	// IDMode pages backwards with max_id = last id - 1
	IDMode
)

func (m Mode) String() string {
	if m == IDMode {
		return "id"
	}
	return "token"
}

// Cursor bounds a paginated call
type Cursor struct {
	// Low only returns items newer than it (min_id, since_id)
	Low string
	// High is the upper bound id or the opaque next-page token (max_id)
	High string
}

// Call is one request to an Adapter
type Call struct {
	Repository string
	Method     string
	Filters    Filters
	Cursor     Cursor
}

// Item is one raw entity as returned by the API
type Item struct {
	ID  string
	Raw json.RawMessage
}

// Page is one adapter response
type Page struct {
	Items []Item
	// Next is the token for the following page, empty when exhausted
	Next string
}

// Adapter issues calls against one network's API and reports failures as
// typed errors from socialscraper/pkg/errors.
type Adapter interface {
	Call(ctx context.Context, call Call) (*Page, error)
}

// PaginateOptions tune a pagination run
type PaginateOptions struct {
	Mode Mode
	// PageSize is the requested count; in IDMode a shorter page ends the run
	PageSize int
	// MaxPages caps the number of calls, 0 means no cap
	MaxPages int
}

// Paginator drives repeated adapter calls until the API is exhausted.
//
//	p := NewPaginator(adapter, call, opts)
//	for p.Next(ctx) {
//	    items = append(items, p.Page().Items...)
//	}
//	if err := p.Err(); err != nil { ... }
type Paginator struct {
	adapter Adapter
	call    Call
	opts    PaginateOptions

	page  *Page
	pages int
	done  bool
	err   error
}

// NewPaginator starts at call's cursor; it is single use
func NewPaginator(adapter Adapter, call Call, opts PaginateOptions) *Paginator {
	call.Filters = call.Filters.Clone()
	return &Paginator{adapter: adapter, call: call, opts: opts}
}

// Next fetches the following page. It returns false when the API has no
// more results, the page cap is reached, or a call failed.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.done || p.err != nil {
		return false
	}
	if p.opts.MaxPages > 0 && p.pages >= p.opts.MaxPages {
		p.done = true
		return false
	}
	if err := ctx.Err(); err != nil {
		p.err = err
		return false
	}

	page, err := p.adapter.Call(ctx, p.call)
	if err != nil {
		p.err = err
		p.page = nil
		return false
	}
	p.pages++
	p.page = page

	if page == nil || len(page.Items) == 0 {
		p.done = true
		return false
	}

	p.advance(page)
	return true
}

func (p *Paginator) advance(page *Page) {
	switch p.opts.Mode {
	case TokenMode:
		if page.Next == "" || page.Next == p.call.Cursor.High {
			p.done = true
			return
		}
		p.call.Cursor.High = page.Next

	case IDMode:
		if p.opts.PageSize > 0 && len(page.Items) < p.opts.PageSize {
			p.done = true
			return
		}
		last, err := strconv.ParseUint(page.Items[len(page.Items)-1].ID, 10, 64)
		if err != nil || last == 0 {
			p.done = true
			return
		}
		next := last - 1
		if prev, err := strconv.ParseUint(p.call.Cursor.High, 10, 64); err == nil && next >= prev {
			// the API did not move backwards
			p.done = true
			return
		}
		p.call.Cursor.High = strconv.FormatUint(next, 10)
	}
}

// Page is the page fetched by the last successful Next
func (p *Paginator) Page() *Page {
	return p.page
}

// Pages counts the calls that returned a response
func (p *Paginator) Pages() int {
	return p.pages
}

// Cursor is the cursor the next call would use
func (p *Paginator) Cursor() Cursor {
	return p.call.Cursor
}

// Err is the error that stopped pagination, if any
func (p *Paginator) Err() error {
	return p.err
}

// FetchAll collects every item in API order. On error the partial result
// is discarded.
func FetchAll(ctx context.Context, adapter Adapter, call Call, opts PaginateOptions) ([]Item, int, error) {
	p := NewPaginator(adapter, call, opts)

	var items []Item
	for p.Next(ctx) {
		items = append(items, p.Page().Items...)
	}
	if err := p.Err(); err != nil {
		return nil, p.Pages(), err
	}
	return items, p.Pages(), nil
}
