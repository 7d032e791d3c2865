package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withNext(p *Page, next string) *Page {
	p.Next = next
	return p
}

func cursors(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Cursor.High
	}
	return out
}

func TestFetchAllTokenMode(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		withNext(idItems("1", "2"), "a"),
		withNext(idItems("3"), "b"),
		idItems("4"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{Repository: "tags", Method: "getRecentMedia"}, PaginateOptions{Mode: TokenMode})
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"", "a", "b"}, cursors(adapter.Calls()))
}

func TestFetchAllTokenModeRepeatedToken(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		withNext(idItems("1"), "a"),
		withNext(idItems("2"), "a"),
		withNext(idItems("3"), "a"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: TokenMode})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, pages)
}

func TestFetchAllIDModeShortPage(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		idItems("30", "29", "28"),
		idItems("20", "19", "18"),
		idItems("10", "9"),
		idItems("5", "4", "3"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: IDMode, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, items, 8)
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"", "27", "17"}, cursors(adapter.Calls()))
}

func TestFetchAllIDModeEmptyPage(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		idItems("30", "29"),
		idItems("20"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: IDMode})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	// the third call returns nothing and ends the run
	assert.Equal(t, 3, pages)
}

func TestFetchAllIDModeCursorMustDecrease(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		idItems("30", "29"),
		idItems("40", "39"),
		idItems("8"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: IDMode})
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 2, pages)
}

func TestFetchAllIDModeUnparsableID(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		idItems("30", "abc"),
		idItems("8"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: IDMode})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, pages)
}

func TestFetchAllMaxPages(t *testing.T) {
	adapter := &fakeAdapter{pages: []*Page{
		withNext(idItems("1"), "a"),
		withNext(idItems("2"), "b"),
		withNext(idItems("3"), "c"),
	}}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: TokenMode, MaxPages: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, pages)
	assert.Len(t, adapter.Calls(), 2)
}

func TestFetchAllErrorDiscardsPartialResults(t *testing.T) {
	boom := errors.New("boom")
	adapter := &fakeAdapter{
		pages: []*Page{
			withNext(idItems("1", "2"), "a"),
			withNext(idItems("3"), "b"),
		},
		failAt: 3,
		err:    boom,
	}

	items, pages, err := FetchAll(context.Background(), adapter, Call{}, PaginateOptions{Mode: TokenMode})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, items)
	assert.Equal(t, 2, pages)
}

func TestFetchAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &fakeAdapter{pages: []*Page{idItems("1")}}
	items, _, err := FetchAll(ctx, adapter, Call{}, PaginateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)
	assert.Empty(t, adapter.Calls())
}

func TestPaginatorDoesNotMutateCallFilters(t *testing.T) {
	filters := Filters{"tag": "football"}
	adapter := &fakeAdapter{pages: []*Page{idItems("1")}}

	p := NewPaginator(adapter, Call{Filters: filters, Cursor: Cursor{Low: "7"}}, PaginateOptions{Mode: TokenMode})
	require.True(t, p.Next(context.Background()))
	assert.False(t, p.Next(context.Background()))
	assert.NoError(t, p.Err())

	p.call.Filters["tag"] = "changed"
	assert.Equal(t, "football", filters["tag"])
	assert.Equal(t, "7", p.Cursor().Low)
	assert.Equal(t, 1, p.Pages())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "token", TokenMode.String())
	assert.Equal(t, "id", IDMode.String())
}
