// Package fetcher does a plain HTTP GET of a target before the browser
// visits it, collecting deployment metadata from response headers and
// <meta> tags. Nothing it returns is compared between targets.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Headers copied into the deployment metadata when present.
var deployHeaders = []string{
	"Server",
	"X-Vercel-Id",
	"X-Vercel-Cache",
	"X-Nf-Request-Id",
	"Age",
	"ETag",
	"Last-Modified",
}

// Meta names containing one of these are treated as deployment metadata.
var metaKeywords = []string{"version", "build", "deploy", "commit", "release"}

// Fetcher performs the preflight GET.
type Fetcher struct {
	client *http.Client
	ua     string
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher with sensible defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		ua:     "Mozilla/5.0 (compatible; paritycheck/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Deployment GETs pageURL and returns its deployment metadata: the status
// code, selected response headers (lower-cased keys), matching <meta>
// tags prefixed with "meta:" and a "rendering" guess.
func (f *Fetcher) Deployment(ctx context.Context, pageURL string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: do: %w", err)
	}
	defer resp.Body.Close()

	// Cap read to 10MB to prevent runaway downloads.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}

	info := map[string]string{"status": strconv.Itoa(resp.StatusCode)}
	for _, h := range deployHeaders {
		if v := resp.Header.Get(h); v != "" {
			info[strings.ToLower(h)] = v
		}
	}
	for k, v := range MetaTags(body) {
		info["meta:"+k] = v
	}
	if len(body) > 0 {
		info["rendering"] = Rendering(body)
	}

	f.logger.Debug("fetcher: preflight",
		"url", pageURL, "status", resp.StatusCode, "size", len(body), "keys", len(info))
	return info, nil
}

// MetaTags returns the <meta name|property=... content=...> pairs whose
// name mentions a version, build, deploy, commit or release.
func MetaTags(body []byte) map[string]string {
	out := make(map[string]string)
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			var key, content string
			for {
				k, v, more := z.TagAttr()
				switch string(k) {
				case "name", "property", "itemprop":
					key = strings.ToLower(string(v))
				case "content":
					content = string(v)
				}
				if !more {
					break
				}
			}
			if key != "" && content != "" && deployMeta(key) {
				out[key] = content
			}
		}
	}
}

func deployMeta(name string) bool {
	for _, kw := range metaKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
