package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/httpclient"
)

// Sentinel errors for trigger-time failures
var (
	// ErrNoValidInputs means every input record was dropped during cleaning.
	// Returned before any network call is made.
	ErrNoValidInputs = errors.New("no valid inputs after cleaning")

	// ErrMalformedTrigger means the API accepted the trigger but returned
	// no snapshot_id to poll
	ErrMalformedTrigger = errors.New("trigger response missing snapshot_id")
)

// Client drives collection jobs against the datasets API
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger

	backoff       Backoff
	submitRetries int
	limiter       *rate.Limiter

	// test hooks
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Config holds collection client configuration
type Config struct {
	// APIToken is the bearer credential. Required; NewClient fails without it.
	APIToken string

	// BaseURL overrides the API endpoint. Defaults to the production
	// datasets API. Tests point this at an httptest server.
	BaseURL string

	// HTTPClient overrides the transport (nil = tuned default)
	HTTPClient *http.Client

	// Logger is a structured logger (nil = nop logger)
	Logger *zap.SugaredLogger

	// PollInterval overrides the delay between progress checks (0 = 5s)
	PollInterval time.Duration

	// SubmitRetries caps trigger attempts on rate limiting (0 = 3)
	SubmitRetries int

	// MaxCallsPerMinute enables client-side request pacing (0 = unpaced)
	MaxCallsPerMinute int
}

// DefaultBaseURL is the production datasets API endpoint
// Should match the default in config/defaults.go for consistency
const DefaultBaseURL = "https://api.brightdata.com/datasets/v3"

// DefaultSubmitRetries is the total number of trigger attempts when the API
// rate-limits submissions
const DefaultSubmitRetries = 3

// NewClient creates a collection client. The API token must be present;
// callers source it from the environment, never from config files.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, errors.WithHint(
			errors.New("API token not configured"),
			"set the HARVEST_API_TOKEN environment variable")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := httpclient.ValidateBaseURL(baseURL); err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpclient.New(httpclient.DefaultTimeout)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	retries := cfg.SubmitRetries
	if retries <= 0 {
		retries = DefaultSubmitRetries
	}

	var limiter *rate.Limiter
	if cfg.MaxCallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.MaxCallsPerMinute)/60.0), 1)
	}

	return &Client{
		token:         cfg.APIToken,
		baseURL:       baseURL,
		httpClient:    hc,
		logger:        logger,
		backoff:       Backoff{Poll: cfg.PollInterval},
		submitRetries: retries,
		limiter:       limiter,
		sleep:         sleepContext,
		now:           time.Now,
	}, nil
}

// SetHTTPClient allows overriding the HTTP client for testing
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetBaseURL allows pointing the client at a test server
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetSleep allows overriding the delay function for testing
func (c *Client) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	c.sleep = sleep
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// Trigger submits a collection job and returns the snapshot ID to poll.
// Inputs are cleaned first; if nothing survives, ErrNoValidInputs is returned
// without contacting the network. Rate-limited submissions are retried with
// exponential backoff up to the configured attempt count. Any other failure
// aborts immediately.
func (c *Client) Trigger(ctx context.Context, ds Dataset, inputs []Input) (string, error) {
	cleaned := ds.CleanInputs(inputs)
	if len(cleaned) == 0 {
		c.logger.Errorw("No valid inputs after cleaning",
			"dataset", ds.Name,
			"submitted", len(inputs))
		return "", ErrNoValidInputs
	}

	body, err := json.Marshal(cleaned)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal inputs")
	}

	query := url.Values{}
	query.Set("dataset_id", ds.ID)
	query.Set("include_errors", "true")
	for k, v := range ds.TriggerParams {
		query.Set(k, v)
	}

	c.logger.Infow("Triggering collection",
		"dataset", ds.Name,
		"dataset_id", ds.ID,
		"inputs", len(cleaned))

	var lastErr error
	for attempt := 1; attempt <= c.submitRetries; attempt++ {
		respBody, err := c.doJSON(ctx, http.MethodPost, "/trigger", query, body)
		if err == nil {
			var resp triggerResponse
			if err := json.Unmarshal(respBody, &resp); err != nil {
				return "", errors.Wrap(err, "failed to unmarshal trigger response")
			}
			if resp.SnapshotID == "" {
				return "", ErrMalformedTrigger
			}
			c.logger.Infow("Collection triggered",
				"dataset", ds.Name,
				"snapshot_id", resp.SnapshotID)
			return resp.SnapshotID, nil
		}

		lastErr = err
		if !errors.Is(err, errors.ErrRateLimited) {
			return "", errors.Wrap(err, "trigger collection")
		}

		if attempt < c.submitRetries {
			delay := c.backoff.RetryDelay(attempt)
			c.logger.Warnw("Rate limited, backing off",
				"dataset", ds.Name,
				"attempt", attempt,
				"max_attempts", c.submitRetries,
				"delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return "", errors.Wrap(err, "trigger cancelled")
			}
		}
	}

	return "", errors.Wrapf(lastErr, "trigger collection failed after %d attempts", c.submitRetries)
}

type progressResponse struct {
	Status string `json:"status"`
}

// CheckStatus performs a single progress poll. Transport failures are
// returned alongside StatusUnknown so the caller can decide whether to keep
// polling.
func (c *Client) CheckStatus(ctx context.Context, snapshotID string) (Status, error) {
	respBody, err := c.doJSON(ctx, http.MethodGet, "/progress/"+snapshotID, nil, nil)
	if err != nil {
		return StatusUnknown, err
	}

	var resp progressResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return StatusUnknown, errors.Wrap(err, "failed to unmarshal progress response")
	}
	return ParseStatus(resp.Status), nil
}

// FetchSnapshot retrieves the finished job's records. Records are kept as
// raw JSON; the client does not interpret result schemas.
func (c *Client) FetchSnapshot(ctx context.Context, snapshotID string) ([]json.RawMessage, error) {
	query := url.Values{}
	query.Set("format", "json")

	respBody, err := c.doJSON(ctx, http.MethodGet, "/snapshot/"+snapshotID, query, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch snapshot")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(respBody, &records); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal snapshot records")
	}
	return records, nil
}

// doJSON performs one authenticated request and returns the response body,
// classifying failures into the error taxonomy
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter wait")
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}
	return respBody, nil
}
