package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/retry"
)

const userAgent = "steamreviews/1.0 (+https://store.steampowered.com/appreviews)"

// Options configures a Client
type Options struct {
	BaseURL      string
	AppID        string
	APIKey       string
	Language     string
	Filter       string
	ReviewType   string
	PurchaseType string
	Timeout      time.Duration

	// Retry controls how transient failures are retried. Nil means a single
	// attempt.
	Retry *retry.Config
}

// Client fetches review pages for one app
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	opts       Options
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a new reviews client
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = &retry.Config{MaxAttempts: 1}
	}
	if retryCfg.RetryIf == nil {
		retryCfg.RetryIf = IsTransient
	}
	if retryCfg.Logger == nil {
		retryCfg.Logger = log
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		opts:   opts,
		retry:  retryCfg,
		logger: log,
	}
}

// NewClientFromConfig builds a Client from the steam and retry sections
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	return NewClient(Options{
		BaseURL:      cfg.Steam.BaseURL,
		AppID:        cfg.Steam.AppID,
		APIKey:       cfg.Steam.APIKey,
		Language:     cfg.Steam.Language,
		Filter:       cfg.Steam.Filter,
		ReviewType:   cfg.Steam.ReviewType,
		PurchaseType: cfg.Steam.PurchaseType,
		Timeout:      cfg.Steam.RequestTimeout,
		Retry: &retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     retry.NewErrorTypeBackoff(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.Multiplier),
			MaxDelay:    cfg.Retry.MaxDelay,
			RetryIf:     IsTransient,
		},
	}, log)
}

// IsTransient reports whether err is a retryable upstream status: rate
// limiting or a 500/502/503/504. Network failures, other statuses and
// malformed bodies are final.
func IsTransient(err error) bool {
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code != 0 && errs.IsRetryableStatusCode(apiErr.Code)
}

// Fetch retrieves the page identified by cursor, retrying transient failures
func (c *Client) Fetch(ctx context.Context, cursor models.Cursor, pageSize int) (*Page, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (*Page, error) {
		return c.fetchOnce(ctx, cursor, pageSize)
	}, c.retry)
}

func (c *Client) fetchOnce(ctx context.Context, cursor models.Cursor, pageSize int) (*Page, error) {
	reqURL, err := ReviewsURL(c.opts.BaseURL, Query{
		AppID:        c.opts.AppID,
		APIKey:       c.opts.APIKey,
		Language:     c.opts.Language,
		Filter:       c.opts.Filter,
		ReviewType:   c.opts.ReviewType,
		PurchaseType: c.opts.PurchaseType,
		PageSize:     pageSize,
		Cursor:       cursor,
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeConfig, 0, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, 0, fmt.Sprintf("failed to read response body: %v", err))
	}

	var response ReviewsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse reviews response", map[string]interface{}{
			"cursor":       cursor.String(),
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, resp.StatusCode, fmt.Sprintf("failed to parse JSON: %v", err))
	}

	if response.Success != nil && *response.Success != 1 {
		return nil, errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "upstream reported success=%d", *response.Success)
	}

	return response.ToPage(), nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	logURL := RedactKey(req.URL.String())
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      logURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, 0, fmt.Sprintf("network error: %v", err))
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      logURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps a non-200 response to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errorType := errs.TypeForStatus(resp.StatusCode)
	apiErr := errs.New(errorType, resp.StatusCode, "unexpected status %s", http.StatusText(resp.StatusCode))

	if resp.StatusCode == http.StatusTooManyRequests {
		after := parseRetryAfter(resp.Header.Get("Retry-After"))
		logger.LogRateLimit(ReviewsEndpoint+c.opts.AppID, int(after.Seconds()))
		return retry.WithRetryAfter(apiErr, after)
	}

	c.logger.WarnWithFields("unexpected reviews API status", map[string]interface{}{
		"status": resp.StatusCode,
		"type":   string(errorType),
	})
	return apiErr
}

// parseRetryAfter reads a Retry-After header given in seconds
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
