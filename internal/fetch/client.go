package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// ErrNotFound is returned for responses with a 404 status code.
// Callers distinguish missing pages (skip the ID) from transient failures
// (retry on a later run).
var ErrNotFound = errors.New("page not found")

// retryCount is how many times a failed request is retried before the
// error surfaces. Transient network errors and 5xx responses are common
// on long crawls; two retries clears most of them.
const retryCount = 2

// Client downloads directory pages.
type Client struct {
	rc *resty.Client

	// delay is the politeness pause between requests.
	delay time.Duration

	// maxBodySize caps how many bytes of a response body are read.
	maxBodySize int64

	// mu guards lastRequest.
	mu          sync.Mutex
	lastRequest time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

// WithDelay sets the politeness delay between requests.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithUserAgent pins the User-Agent header. Without this option a random
// desktop-browser User-Agent is chosen when the client is created, the
// same per-run rotation the original scraper used.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.rc.SetHeader("User-Agent", ua)
		}
	}
}

// WithMaxBodySize caps the response body size in bytes. Zero keeps the
// current cap.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithCookie sends a Cookie header with every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		if cookie != "" {
			c.rc.SetHeader("Cookie", cookie)
		}
	}
}

// WithHeaders sends extra headers with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.rc.SetHeader(k, v)
		}
	}
}

// NewClient creates a Client ready to fetch directory pages.
func NewClient(opts ...Option) *Client {
	rc := resty.New()
	rc.SetTimeout(20 * time.Second)
	rc.SetRetryCount(retryCount)
	rc.SetRetryWaitTime(2 * time.Second)
	rc.SetRetryMaxWaitTime(10 * time.Second)
	rc.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	rc.SetHeader("User-Agent", browser.Computer())
	rc.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	rc.SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.5")

	// Responses are streamed so the body cap applies before the bytes
	// are buffered, not after.
	rc.SetDoNotParseResponse(true)

	if jar, err := cookiejar.New(nil); err == nil {
		rc.SetCookieJar(jar)
	}

	c := &Client{
		rc:          rc,
		delay:       1 * time.Second,
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Response is a fetched page, decoded to UTF-8.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, converted to UTF-8 and capped at the
	// configured size.
	Body []byte
}

// Get fetches a page, honoring the politeness delay and the body cap.
// Non-404 HTTP errors and network errors are returned as-is after the
// retry budget is exhausted; 404 maps to ErrNotFound.
func (c *Client) Get(ctx context.Context, pageURL string) (*Response, error) {
	if err := c.pause(ctx); err != nil {
		return nil, err
	}

	resp, err := c.rc.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pageURL)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode(), pageURL)
	}

	contentType := resp.Header().Get("Content-Type")

	// Normalize to UTF-8 before reading. charset.NewReader sniffs the
	// body and the Content-Type header, so GBK directory mirrors decode
	// transparently.
	limited := io.LimitReader(raw, c.maxBodySize)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", pageURL, err)
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	return &Response{
		URL:         pageURL,
		StatusCode:  resp.StatusCode(),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Check verifies the directory is reachable by fetching baseURL once.
// It is called before a crawl starts so configuration problems surface
// immediately instead of after the checkpoint has advanced.
func (c *Client) Check(ctx context.Context, baseURL string) error {
	resp, err := c.rc.R().SetContext(ctx).Get(baseURL)
	if err != nil {
		return fmt.Errorf("directory unreachable at %s: %w", baseURL, err)
	}
	defer resp.RawBody().Close()

	if resp.StatusCode() >= 500 {
		return fmt.Errorf("directory unhealthy at %s: status %d", baseURL, resp.StatusCode())
	}
	return nil
}

// pause enforces the politeness delay since the previous request.
// The wait is context-aware so shutdown is not blocked by a sleep.
func (c *Client) pause(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.lastRequest.Add(c.delay).Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
