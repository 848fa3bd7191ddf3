package offline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher performs the network side of a request.
type Fetcher interface {
	Fetch(ctx context.Context, r *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, r *http.Request) (*http.Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, r *http.Request) (*http.Response, error) {
	return f(ctx, r)
}

// UpstreamFetcher forwards requests to a fixed origin.
type UpstreamFetcher struct {
	origin *url.URL
	client *http.Client
}

// NewUpstreamFetcher returns a fetcher for origin. A nil client means
// http.DefaultClient.
func NewUpstreamFetcher(origin string, client *http.Client) (*UpstreamFetcher, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("offline.NewUpstreamFetcher: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("offline.NewUpstreamFetcher: origin %q must be absolute", origin)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstreamFetcher{origin: u, client: client}, nil
}

// Fetch rewrites r onto the origin and sends it.
func (f *UpstreamFetcher) Fetch(ctx context.Context, r *http.Request) (*http.Response, error) {
	target := *f.origin
	target.Path = strings.TrimSuffix(f.origin.Path, "/") + r.URL.Path
	target.RawQuery = r.URL.RawQuery

	out, err := http.NewRequestWithContext(ctx, r.Method, target.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("offline.UpstreamFetcher.Fetch: %w", err)
	}
	out.Header = r.Header.Clone()
	out.ContentLength = r.ContentLength

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("offline.UpstreamFetcher.Fetch: %w", err)
	}
	return resp, nil
}

// Origin returns the upstream base URL.
func (f *UpstreamFetcher) Origin() string { return f.origin.String() }
