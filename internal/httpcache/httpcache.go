// Package httpcache implements a file-based cache for upstream GET requests,
// for reproducing scrapes offline.
package httpcache

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Transport caches HTTP responses based on the URL and a category set on the
// request context.
type Transport struct {
	// Dir is the directory to store cached responses in. If empty, nothing is
	// cached.
	Dir string

	// MaxAge is how long a cached response is used for. If zero, cached
	// responses never expire.
	MaxAge time.Duration

	// RedactParams are URL query parameters (e.g., api keys) to remove from
	// the stored request and the cache key.
	RedactParams []string

	// Next is the transport to use for making requests. If nil, only cached
	// responses are used.
	Next http.RoundTripper

	// Now returns the current time. If nil, [time.Now] is used.
	Now func() time.Time
}

type categoryKey struct{}

// WithCategory sets the cache category (used as the file name prefix) for
// requests made with ctx.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, categoryKey{}, category)
}

func contextCategory(ctx context.Context) string {
	if v, ok := ctx.Value(categoryKey{}).(string); ok && v != "" {
		return v
	}
	return "req"
}

// Name returns the cache file name for a request.
func (t *Transport) Name(req *http.Request) string {
	s := sha1.Sum([]byte(t.redact(req.URL).String()))
	return contextCategory(req.Context()) + "-" + hex.EncodeToString(s[:])
}

func (t *Transport) redact(u *url.URL) *url.URL {
	if len(t.RedactParams) == 0 || u.RawQuery == "" {
		return u
	}
	q := u.Query()
	for _, p := range t.RedactParams {
		q.Del(p)
	}
	u2 := *u
	u2.RawQuery = q.Encode()
	return &u2
}

func (t *Transport) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return nil, fmt.Errorf("httpcache: unsupported method %s", req.Method)
	}

	var cacheName string
	if t.Dir != "" {
		cacheName = filepath.Join(t.Dir, t.Name(req))
		if resp, err := t.load(cacheName, req); err == nil {
			return resp, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if t.Next == nil {
		if cacheName == "" {
			return nil, fmt.Errorf("httpcache: fetch disabled")
		}
		return nil, fmt.Errorf("httpcache: fetch disabled, response not in cache (%s)", cacheName)
	}

	resp, err := t.Next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if cacheName == "" || resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	redacted := req.Clone(req.Context())
	redacted.URL = t.redact(req.URL)

	reqbuf, err := httputil.DumpRequest(redacted, false)
	if err != nil {
		return nil, fmt.Errorf("httpcache: dump request: %w", err)
	}
	respbuf, err := httputil.DumpResponse(resp, true) // replaces resp.Body
	if err != nil {
		return nil, fmt.Errorf("httpcache: dump response: %w", err)
	}
	if err := os.WriteFile(cacheName, slices.Concat(reqbuf, respbuf), 0666); err != nil {
		return nil, fmt.Errorf("httpcache: write cached response: %w", err)
	}
	return resp, nil
}

// load reads a cached response, returning an error wrapping [fs.ErrNotExist]
// if it is missing or expired.
func (t *Transport) load(name string, req *http.Request) (*http.Response, error) {
	if t.MaxAge > 0 {
		fi, err := os.Stat(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			return nil, fmt.Errorf("httpcache: stat cached response: %w", err)
		}
		if t.now().Sub(fi.ModTime()) > t.MaxAge {
			return nil, fmt.Errorf("httpcache: cached response expired: %w", fs.ErrNotExist)
		}
	}

	buf, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("httpcache: read cached response: %w", err)
	}

	r := bufio.NewReader(bytes.NewReader(buf))
	if _, err := http.ReadRequest(r); err != nil {
		return nil, fmt.Errorf("httpcache: read cached request: %w", err)
	}
	resp, err := http.ReadResponse(r, req)
	if err != nil {
		return nil, fmt.Errorf("httpcache: read cached response: %w", err)
	}
	return resp, nil
}

// Purge removes cached responses in the specified categories.
func Purge(dir string, categories ...string) error {
	ds, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, d := range ds {
		if d.IsDir() {
			continue
		}
		if !slices.ContainsFunc(categories, func(category string) bool {
			return strings.HasPrefix(d.Name(), category+"-")
		}) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, d.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Init creates the cache directory if needed.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitattributes"), []byte("* -text\n"), 0666); err != nil { // no line ending conversions
		return fmt.Errorf("write cache dir gitattributes: %w", err)
	}
	return nil
}
