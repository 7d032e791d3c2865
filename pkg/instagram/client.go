package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"socialscraper/pkg/config"
	errs "socialscraper/pkg/errors"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/ratelimit"
	"socialscraper/pkg/retry"
)

const userAgent = "socialscraper/1.0"

// Client calls the Instagram v1 API on behalf of one access token
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	limiter     ratelimit.Limiter
	retry       *retry.Config
	logger      logger.Logger
}

// NewClient creates a client from the instagram config section.
// A nil limiter does not pace requests; a nil retry config tries once.
func NewClient(cfg config.InstagramConfig, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *Client {
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
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: cfg.AccessToken,
		limiter:     limiter,
		retry:       retryCfg,
		logger:      log.WithField("component", "instagram_client"),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Get requests path below the base URL and returns the body once the
// response envelope reports success.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.accessToken == "" {
		return nil, errs.NewMissingOptionsError("instagram.access_token")
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, path, params)
	}, c.retry)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	queued := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if waited := time.Since(queued); waited > time.Millisecond {
		logger.LogRateLimit(c.logger, path, waited)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("access_token", c.accessToken)

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	// the query string carries the token, only the path is logged
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"path":  path,
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
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := checkResponse(resp.StatusCode, body); err != nil {
		c.logger.WarnWithFields("API error", map[string]interface{}{
			"path":       path,
			"status":     resp.StatusCode,
			"error_type": string(errs.TypeOf(err)),
		})
		return nil, err
	}
	return body, nil
}

// checkResponse maps the meta envelope, or the HTTP status when the body
// has none, to a typed error.
func checkResponse(status int, body []byte) error {
	code, codeErr := jsonparser.GetInt(body, "meta", "code")
	if status < http.StatusBadRequest && (codeErr != nil || code < http.StatusBadRequest) {
		return nil
	}
	if codeErr == nil && code >= http.StatusBadRequest {
		status = int(code)
	}

	errorType, _ := jsonparser.GetString(body, "meta", "error_type")
	message, _ := jsonparser.GetString(body, "meta", "error_message")
	if message == "" {
		message = http.StatusText(status)
	}
	if errorType != "" {
		message = fmt.Sprintf("%s: %s", errorType, message)
	}

	switch {
	case errorType == "APINotFoundError":
		return errs.NewNotFoundError(message, status)
	case errorType == "OAuthRateLimitException":
		return errs.NewRateLimitError(message, status)
	case strings.HasPrefix(strings.ToLower(errorType), "oauth"):
		return errs.NewAuthError(message, status)
	case errorType != "":
		return errs.NewAPIError(message, status)
	case status == http.StatusNotFound:
		return errs.NewNotFoundError(message, status)
	case status == http.StatusTooManyRequests:
		return errs.NewRateLimitError(message, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.NewAuthError(message, status)
	case status >= http.StatusInternalServerError:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: message, Code: status}
	default:
		return errs.NewAPIError(message, status)
	}
}
