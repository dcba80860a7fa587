package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-aggregator/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// Error describes a failed upstream call. The fallback chain moves on after any of them
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a JSON client
type Options struct {
	Provider   string
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	HTTPClient *http.Client
}

// Client performs rate-limited, time-bounded JSON GETs against one provider
type Client struct {
	provider string
	baseURL  *url.URL
	timeout  time.Duration
	limiter  *rate.Limiter
	http     *http.Client
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%s: invalid base URL %q", opts.Provider, opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		provider: opts.Provider,
		baseURL:  base,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, burst),
		http:     httpClient,
	}, nil
}

// BaseURL returns the provider root without a trailing slash
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// GetJSON encodes params with url struct tags, performs the GET and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, op, path string, params interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Provider: c.provider, Op: op, Err: fmt.Errorf("rate limit: %w", err)}
	}

	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return &Error{Provider: c.provider, Op: op, Err: err}
	}
	u := c.baseURL.ResolveReference(ref)
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return &Error{Provider: c.provider, Op: op, Err: fmt.Errorf("encode query: %w", err)}
		}
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &Error{Provider: c.provider, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Provider: c.provider, Op: op, Err: err}
	}
	defer resp.Body.Close()

	logger.GetLogger().WithFields(map[string]interface{}{
		"provider": c.provider,
		"op":       op,
		"status":   resp.StatusCode,
		"elapsed":  time.Since(start).String(),
	}).Debug("upstream call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{Provider: c.provider, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &Error{Provider: c.provider, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
