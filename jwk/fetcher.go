package jwk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shogo82148/memoize"
)

const defaultUserAgent = "github.com/josekit/jose"

// defaultFetchTTL is how long a fetched JWK Set is served from cache.
const defaultFetchTTL = time.Hour

// Doer is an interface for doing an http request, such as [http.Client].
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// Doer is used for http requests.
	// If it is nil, http.DefaultClient is used.
	Doer Doer

	// UserAgent is the value of the User-Agent header in http requests.
	UserAgent string

	// TTL is how long a fetched JWK Set is cached.
	// If it is zero, one hour is used.
	TTL time.Duration
}

// Fetcher fetches JWK Sets with HTTP GET requests and caches them; the
// URL scheme is not restricted to https.
// Concurrent fetches of the same URL are coalesced into a single
// request. The zero value is not usable; use NewFetcher.
type Fetcher struct {
	doer      Doer
	userAgent string
	ttl       time.Duration

	group memoize.Group[string, *Set]
}

// NewFetcher returns a new Fetcher.
// config may be nil; the defaults are used.
func NewFetcher(config *FetcherConfig) *Fetcher {
	if config == nil {
		config = &FetcherConfig{}
	}
	doer := config.Doer
	if doer == nil {
		doer = http.DefaultClient
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	ttl := config.TTL
	if ttl == 0 {
		ttl = defaultFetchTTL
	}
	return &Fetcher{
		doer:      doer,
		userAgent: userAgent,
		ttl:       ttl,
	}
}

// Fetch returns the JWK Set published at url, from cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Set, error) {
	set, _, err := f.group.Do(ctx, url, f.fetch)
	return set, err
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Set, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Convert to wall-clock; the monotonic reading can be wrong after
	// the host hibernates.
	expiresAt := time.Now().Add(f.ttl).Round(0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, time.Time{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/jwk-set+json")

	resp, err := f.doer.Do(req)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("jwk: unexpected response code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, time.Time{}, err
	}

	set, err := ParseSet(data)
	if err != nil {
		return nil, time.Time{}, err
	}
	return set, expiresAt, nil
}
