package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
	"socialscraper/pkg/store"
)

func setupTestStore(t *testing.T) *store.GormStore {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "scraper.db"), false, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// fakeAdapter replays pages in order and records every call
type fakeAdapter struct {
	mu    sync.Mutex
	pages []*Page
	calls []Call
	// failAt makes the n-th call (1-based) return err
	failAt int
	err    error
	// block, when set, holds every call until it is closed
	block chan struct{}
}

func (a *fakeAdapter) Call(ctx context.Context, call Call) (*Page, error) {
	if a.block != nil {
		<-a.block
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, call)
	n := len(a.calls)
	if a.failAt == n {
		return nil, a.err
	}
	if n > len(a.pages) {
		return &Page{}, nil
	}
	return a.pages[n-1], nil
}

func (a *fakeAdapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

type rawUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type rawPost struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Created int64    `json:"created"`
	User    *rawUser `json:"user,omitempty"`
	Tags    []string `json:"tags"`
}

func rawItem(t *testing.T, id, userID string, tags ...string) Item {
	t.Helper()

	p := rawPost{ID: id, Text: "post " + id, Created: 1700000000, Tags: tags}
	if userID != "" {
		p.User = &rawUser{ID: userID, Username: "user" + userID}
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return Item{ID: id, Raw: data}
}

func page(items ...Item) *Page {
	return &Page{Items: items}
}

var testMapper = MapperFunc(func(raw json.RawMessage) (*Entity, error) {
	var p rawPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Text == "unmappable" {
		return nil, fmt.Errorf("cannot map %s", p.ID)
	}

	entity := &Entity{
		Post: models.Post{
			ExternalID:  p.ID,
			Text:        p.Text,
			CreatedDate: time.Unix(p.Created, 0).UTC(),
		},
		Tags: p.Tags,
	}
	if p.User != nil {
		entity.Author = &models.User{ExternalID: p.User.ID, Handle: p.User.Username}
	}
	return entity, nil
})

// fakeNetwork is an Instagram-shaped network backed by a fakeAdapter
type fakeNetwork struct {
	name    string
	adapter Adapter
	mode    Mode
	limits  Settings
}

func newFakeNetwork(adapter Adapter) *fakeNetwork {
	return &fakeNetwork{name: "instagram", adapter: adapter, mode: TokenMode}
}

func (n *fakeNetwork) Name() string                   { return n.name }
func (n *fakeNetwork) Adapter() Adapter               { return n.adapter }
func (n *fakeNetwork) Mapper() Mapper                 { return testMapper }
func (n *fakeNetwork) Pagination() Mode               { return n.mode }
func (n *fakeNetwork) CursorKeys() (low, high string) { return "min_id", "max_id" }
func (n *fakeNetwork) Limits() Settings               { return n.limits }

func (n *fakeNetwork) TagRequest(tag string, filters Filters) (Request, error) {
	if tag == "" {
		return Request{}, errs.NewMissingOptionsError("tag")
	}
	f := filters.Clone()
	f["tag"] = tag
	return Request{Repository: "tags", Method: "getRecentMedia", Filters: f}, nil
}

func (n *fakeNetwork) AllRequest(filters Filters) (Request, error) {
	f := filters.Clone()
	if f.String("id") == "" {
		f["id"] = "self"
	}
	return Request{Repository: "users", Method: "getMedia", Filters: f}, nil
}

type adapterFunc func(ctx context.Context, call Call) (*Page, error)

func (f adapterFunc) Call(ctx context.Context, call Call) (*Page, error) { return f(ctx, call) }

func idItems(ids ...string) *Page {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id, Raw: json.RawMessage(`{}`)}
	}
	return &Page{Items: items}
}
