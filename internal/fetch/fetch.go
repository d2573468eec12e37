// Package fetch retrieves upstream documents.
package fetch

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lapswim/lapswim/internal/httpcache"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with upstream requests.
const DefaultUserAgent = "lapswim-scraper-bot/0.1"

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %q: response status %d", e.URL, e.Status)
}

// Client fetches documents, optionally rate-limited.
type Client struct {
	// HTTP is the client to use. If nil, a client with a cookie jar is used.
	HTTP *http.Client

	// UserAgent overrides [DefaultUserAgent].
	UserAgent string

	// Limiter, if set, is waited on before each request.
	Limiter *rate.Limiter
}

// NewClient creates a client for rt with a cookie jar and a timeout.
func NewClient(rt http.RoundTripper, timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Transport: rt,
		Jar:       jar,
		Timeout:   timeout,
	}
}

// Options configures a client created by [New].
type Options struct {
	// CacheDir enables the response cache if set.
	CacheDir    string
	CacheMaxAge time.Duration

	// NoFetch only uses cached responses.
	NoFetch bool

	Timeout      time.Duration
	UserAgent    string
	Limiter      *rate.Limiter
	RedactParams []string
}

// New creates a client backed by a response cache.
func New(o Options) (*Client, error) {
	if o.CacheDir != "" {
		slog.Info("using cache dir", "path", o.CacheDir)
		if err := httpcache.Init(o.CacheDir); err != nil {
			return nil, err
		}
	}
	t := &httpcache.Transport{
		Dir:          o.CacheDir,
		MaxAge:       o.CacheMaxAge,
		RedactParams: o.RedactParams,
		Next:         http.DefaultTransport,
	}
	if o.NoFetch {
		t.Next = nil
		t.MaxAge = 0
	}
	return &Client{
		HTTP:      NewClient(t, o.Timeout),
		UserAgent: o.UserAgent,
		Limiter:   o.Limiter,
	}, nil
}

// Every returns a limiter allowing one request per interval.
func Every(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// QPS returns a limiter allowing qps requests per second, or nil if qps is
// not positive.
func QPS(qps float64) *rate.Limiter {
	if qps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(qps), 1)
}

// Get fetches u, caching it under category if the transport supports it. The
// caller must close the response body.
func (c *Client) Get(ctx context.Context, u, category string) (*http.Response, error) {
	slog.Debug("fetch", "category", category, "url", u)

	req, err := http.NewRequestWithContext(httpcache.WithCategory(ctx, category), http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", cmp.Or(c.UserAgent, DefaultUserAgent))

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	hc := c.HTTP
	if hc == nil {
		hc = NewClient(nil, 0)
		c.HTTP = hc
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: u, Status: resp.StatusCode}
	}
	return resp, nil
}

// Document fetches and parses an HTML document.
func (c *Client) Document(ctx context.Context, u, category string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, u, category)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", u, err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// JSON fetches u and decodes it into v.
func (c *Client) JSON(ctx context.Context, u, category string, v any) error {
	resp, err := c.Get(ctx, u, category)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %q: %w", u, err)
	}
	return nil
}
