package importer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
)

func newTestServer(t *testing.T, scrapers ...Scraper) *httptest.Server {
	t.Helper()
	log := logger.NewNopLogger()
	h := NewHandler(New(log, scrapers...), log)
	srv := httptest.NewServer(Chain(h.Routes(), Recover(log), RequestLogger(log)))
	t.Cleanup(srv.Close)
	return srv
}

func decodeResponse(t *testing.T, resp *http.Response) ImportResponse {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body ImportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandlerGet(t *testing.T) {
	tw := &stubScraper{name: "twitter", created: 4}
	srv := newTestServer(t, &stubScraper{name: "instagram"}, tw)

	resp, err := http.Get(srv.URL + "/import?scrapers=twitter&tags=%23golang&count=10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, http.StatusOK, body.Status)
	require.Len(t, body.Feedbacks, 1)
	assert.Equal(t, FeedbackResponse{
		Network: "twitter",
		Tag:     "golang",
		Level:   LevelSuccess,
		Message: `Scraped 4 items from "twitter".`,
		Count:   4,
	}, body.Feedbacks[0])

	calls := tw.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 10, calls[0].Filters["count"])
}

func TestHandlerPostForm(t *testing.T) {
	ig := &stubScraper{name: "instagram", err: errs.NewRateLimitError("The maximum number of requests per hour has been exceeded.", 429)}
	srv := newTestServer(t, ig)

	form := url.Values{"scrapers": {"instagram"}, "request": {"football"}}
	resp, err := http.Post(srv.URL+"/import", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusTooManyRequests, body.Status)
	require.Len(t, body.Feedbacks, 1)
	assert.Equal(t, LevelWarning, body.Feedbacks[0].Level)
	assert.Equal(t, "preset", ig.Calls()[0].Kind)
}

func TestHandlerBadOptions(t *testing.T) {
	srv := newTestServer(t, &stubScraper{name: "instagram"})

	resp, err := http.Get(srv.URL + "/import")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.False(t, body.Success)
	require.Len(t, body.Feedbacks, 1)
	assert.Equal(t, LevelError, body.Feedbacks[0].Level)
	assert.Contains(t, body.Feedbacks[0].Message, "scrapers")
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubScraper{name: "instagram"})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/import", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
	_ = resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubScraper{name: "instagram"}, &stubScraper{name: "twitter"})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		OK       bool     `json:"ok"`
		Scrapers []string `json:"scrapers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, []string{"instagram", "twitter"}, body.Scrapers)
}

func TestRecoverAndRequestLogger(t *testing.T) {
	log := logger.NewTestLogger()
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	Chain(panicking, RequestLogger(log), Recover(log)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, ok := log.FindMessage("panic recovered")
	require.True(t, ok)
	assert.Equal(t, "boom", msg.Fields["error"])

	req, ok := log.FindMessage("request")
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, req.Fields["status"])
}

func TestOTelMiddlewarePassesThrough(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), OTel("import"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
