package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/ratelimit"
	"socialscraper/pkg/retry"
)

// Client calls the Twitter v1.1 REST API with an application-only token
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client from the twitter config section. A static
// bearer token is used as is; otherwise the consumer key and secret are
// exchanged for one at the token URL on first use.
func NewClient(cfg config.TwitterConfig, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
		retryCfg.Logger = log
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: newHTTPClient(cfg),
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    limiter,
		retry:      retryCfg,
		logger:     log.WithField("component", "twitter_client"),
	}
}

// newHTTPClient returns an authenticating client, or nil without credentials
func newHTTPClient(cfg config.TwitterConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var hc *http.Client
	switch {
	case cfg.BearerToken != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.BearerToken,
			TokenType:   "Bearer",
		}))
	case cfg.ConsumerKey != "" && cfg.ConsumerSecret != "":
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ConsumerKey,
			ClientSecret: cfg.ConsumerSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		hc = cc.Client(ctx)
	default:
		return nil
	}
	hc.Timeout = timeout
	return hc
}

// Get requests {base}/{resource}.json and returns the body of a
// successful response.
func (c *Client) Get(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	if c.httpClient == nil {
		return nil, errs.NewMissingOptionsError("twitter.bearer_token", "twitter.consumer_key", "twitter.consumer_secret")
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, resource, params)
	}, c.retry)
}

func (c *Client) get(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	queued := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if waited := time.Since(queued); waited > time.Millisecond {
		logger.LogRateLimit(c.logger, resource, waited)
	}

	endpoint := c.baseURL + "/" + strings.Trim(resource, "/") + ".json"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    endpoint,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var tokenErr *oauth2.RetrieveError
		if errors.As(err, &tokenErr) {
			code := 0
			if tokenErr.Response != nil {
				code = tokenErr.Response.StatusCode
			}
			return nil, errs.NewAuthError(fmt.Sprintf("failed to obtain bearer token: %s", tokenErr.Error()), code)
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   endpoint,
			"error": err.Error(),
		})
		return nil, errs.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := checkResponse(resp.StatusCode, body); err != nil {
		c.logger.WarnWithFields("API error", map[string]interface{}{
			"url":        endpoint,
			"status":     resp.StatusCode,
			"error_type": string(errs.TypeOf(err)),
		})
		return nil, err
	}
	return body, nil
}

// checkResponse maps the HTTP status and any errors array to a typed error
func checkResponse(status int, body []byte) error {
	messages := errorMessages(body)
	if status < http.StatusBadRequest && len(messages) == 0 {
		return nil
	}

	message := strings.Join(messages, "; ")
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.NewAuthError(message, status)
	case http.StatusNotFound, http.StatusGone:
		return errs.NewNotFoundError(message, status)
	case 420, http.StatusTooManyRequests:
		return errs.NewRateLimitError(message, status)
	}
	if status >= http.StatusInternalServerError {
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: message, Code: status}
	}
	return errs.NewAPIError(message, status)
}

// errorMessages renders the entries of a top-level errors array as
// "[code] message".
func errorMessages(body []byte) []string {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var messages []string
	_, _ = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		code, _ := jsonparser.GetInt(value, "code")
		msg, _ := jsonparser.GetString(value, "message")
		messages = append(messages, fmt.Sprintf("[%d] %s", code, msg))
	}, "errors")
	return messages
}
