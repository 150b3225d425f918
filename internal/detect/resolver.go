package detect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// LinkResolver fetches same-origin legal-link targets and extracts their
// visible text. Fetches honor robots.txt and are rate limited per host.
type LinkResolver struct {
	httpClient   *http.Client
	robots       *robotsChecker // nil disables robots.txt checks
	userAgent    string
	maxBytes     int64
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// ResolverOptions configures a LinkResolver
type ResolverOptions struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	RespectRobots bool
	RatePerSecond float64
	Burst         int
}

// NewLinkResolver creates a resolver for same-origin link targets
func NewLinkResolver(opts ResolverOptions) *LinkResolver {
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}

	var robots *robotsChecker
	if opts.RespectRobots {
		robots = newRobotsChecker(opts.UserAgent, opts.Timeout)
	}

	return &LinkResolver{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:       robots,
		userAgent:    opts.UserAgent,
		maxBytes:     opts.MaxBodyBytes,
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(opts.RatePerSecond),
		defaultBurst: opts.Burst,
	}
}

// Resolve fetches the target and returns its normalized visible text
func (r *LinkResolver) Resolve(ctx context.Context, target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target: %w", err)
	}

	if r.robots != nil && !r.robots.canFetch(ctx, parsed.Scheme, parsed.Host, parsed.Path) {
		return "", fmt.Errorf("robots.txt disallows %s", parsed.Path)
	}

	if err := r.limiter(parsed.Host).Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return visibleText(doc), nil
}

// limiter returns the per-host rate limiter, creating it on first use
func (r *LinkResolver) limiter(host string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[host]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[host]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(r.defaultRate, r.defaultBurst)
	r.limiters[host] = limiter
	return limiter
}
