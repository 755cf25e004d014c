// Package client implements the resilient fetch pipeline: rate-limited,
// circuit-broken, retried HTTP fetches of vlr.gg pages, cached match
// extraction, and concurrent batch processing of event listings.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vlr-matches/internal/cache"
	"vlr-matches/internal/config"
	"vlr-matches/internal/extract"
	"vlr-matches/internal/logging"
	"vlr-matches/internal/match"
	"vlr-matches/internal/resilience"
)

// matchURLPattern matches listing hrefs that point at match pages; vlr.gg
// match paths start with a numeric match ID segment.
var matchURLPattern = regexp.MustCompile(`^/\d+/`)

// eventSlugPattern pulls the event slug out of an event-matches URL.
var eventSlugPattern = regexp.MustCompile(`/event/matches/\d+/([^/]+)`)

// Client fetches and processes match data. All methods are safe for
// concurrent use; the breaker and rate limiter are shared across every
// in-flight request.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	cache      *cache.Cache
	breaker    *resilience.Breaker
	limiter    *resilience.RateLimiter
	metrics    *logging.Metrics

	mu           sync.Mutex
	slugPatterns map[string]*regexp.Regexp
}

// New creates a client from the given configuration.
func New(cfg config.Config) (*Client, error) {
	cacheDir, err := config.ExpandPath(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	matchCache, err := cache.New(cacheDir, cfg.CacheTTL, cfg.CacheEnabled, cfg.MemoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initializing cache: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		cache:        matchCache,
		breaker:      resilience.NewBreaker(resilience.DefaultFailureThreshold, resilience.DefaultResetWindow),
		limiter:      resilience.NewRateLimiter(cfg.RateLimitDelay),
		metrics:      logging.NewMetrics(),
		slugPatterns: make(map[string]*regexp.Regexp),
	}, nil
}

// Cache exposes the underlying match cache for maintenance commands.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Metrics exposes the client's operational counters.
func (c *Client) Metrics() *logging.Metrics {
	return c.metrics
}

// slugPattern returns a compiled word-boundary pattern for an event slug.
// The slug must appear as a complete hyphen-delimited segment, so
// "vct" never matches "valorant-challengers-vct-...". Compiled patterns
// are cached per slug.
func (c *Client) slugPattern(slug string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.slugPatterns[slug]; ok {
		return p
	}
	p := regexp.MustCompile(`(^|-)` + regexp.QuoteMeta(strings.ToLower(slug)) + `(-|$)`)
	c.slugPatterns[slug] = p
	return p
}

// fetchDocument runs the full request pipeline for one URL: circuit
// breaker check, rate limiting, HTTP GET with retry and exponential
// backoff, and HTML parsing. Breaker success is recorded strictly on
// HTTP-layer success; a subsequent parse failure is a separate concern
// tracked in metrics.
func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	log := logging.WithComponent("client")

	if err := c.breaker.Allow(); err != nil {
		log.Warn().Str("url", pageURL).Err(err).Msg("request blocked")
		return nil, err
	}

	delays := resilience.NewBackoff(c.cfg.RetryBaseDelay)
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if resilience.IsRetryableError(err) && attempt < c.cfg.MaxRetries-1 {
				log.Warn().
					Str("url", pageURL).
					Int("attempt", attempt+1).
					Err(err).
					Msg("transient request error, retrying")
				if err := sleepBackoff(ctx, delays.Next()); err != nil {
					return nil, err
				}
				continue
			}
			c.breaker.RecordFailure()
			return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resilience.IsRetryableStatus(resp.StatusCode) && attempt < c.cfg.MaxRetries-1 {
				log.Warn().
					Str("url", pageURL).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("retryable status, backing off")
				if err := sleepBackoff(ctx, delays.Next()); err != nil {
					return nil, err
				}
				continue
			}
			// Permanent 4xx or retry budget exhausted.
			c.breaker.RecordFailure()
			return nil, lastErr
		}

		doc, parseErr := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()

		// The network round trip succeeded; close the breaker even if
		// the body fails to parse.
		c.breaker.RecordSuccess()

		if parseErr != nil {
			c.metrics.IncrCounter("fetch.parse_failures")
			return nil, fmt.Errorf("parsing %s: %w", pageURL, parseErr)
		}
		return doc, nil
	}

	c.breaker.RecordFailure()
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// sleepBackoff sleeps for d, returning early on context cancellation.
func sleepBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchEventMatches fetches an event's listing page and returns the hrefs
// of its match links. When a slug is known (supplied, or recoverable from
// the event URL), links must contain it as a whole hyphen-delimited
// segment; that word-boundary check keeps other events' matches out.
func (c *Client) FetchEventMatches(ctx context.Context, eventURL, eventSlug string) ([]string, error) {
	log := logging.WithComponent("client")
	log.Info().Str("url", eventURL).Msg("fetching event matches")

	doc, err := c.fetchDocument(ctx, eventURL)
	if err != nil {
		return nil, err
	}

	if eventSlug == "" {
		if m := eventSlugPattern.FindStringSubmatch(eventURL); m != nil {
			eventSlug = m[1]
		}
	}
	var slugPattern *regexp.Regexp
	if eventSlug != "" {
		slugPattern = c.slugPattern(eventSlug)
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !matchURLPattern.MatchString(href) {
			return
		}
		if slugPattern != nil && !slugPattern.MatchString(strings.ToLower(href)) {
			return
		}
		links = append(links, href)
	})

	log.Info().Int("count", len(links)).Msg("found match links")
	return links, nil
}

// FetchMatch runs the full per-match contract for one listing href and
// classifies the outcome. It never returns an error: failures are logged,
// recorded on the breaker inside fetchDocument, and reported as an
// OutcomeFailure result.
func (c *Client) FetchMatch(ctx context.Context, href string, upcomingOnly bool) match.Result {
	log := logging.WithComponent("client")

	matchURL, err := joinURL(c.cfg.BaseURL, href)
	if err != nil {
		log.Error().Str("href", href).Err(err).Msg("invalid match link")
		return match.Result{Href: href, Outcome: match.OutcomeFailure}
	}
	log.Debug().Str("url", matchURL).Msg("processing match")

	// Cache fast path. Live and upcoming entries are transient and are
	// never served; upcoming-only mode always re-verifies at the source.
	if !upcomingOnly {
		if cached, ok := c.cache.Get(matchURL); ok && cached.Cacheable() {
			c.metrics.IncrCounter("cache.hits")
			return match.Result{Href: href, Outcome: match.OutcomeMatch, Match: cached}
		}
		c.metrics.IncrCounter("cache.misses")
	}

	doc, err := c.fetchDocument(ctx, matchURL)
	if err != nil {
		log.Error().Str("url", matchURL).Err(err).Msg("failed to fetch match")
		c.metrics.IncrCounter("fetch.failures")
		return match.Result{Href: href, Outcome: match.OutcomeFailure}
	}

	teams := extract.Teams(doc)
	if teams[0] == "TBD" || teams[1] == "TBD" {
		return match.Result{Href: href, Outcome: match.OutcomeTBD}
	}
	if teams[0] == match.UnknownTeam1 {
		// Extraction fell back to placeholders: the page shape changed.
		c.metrics.IncrCounter("extract.team_fallbacks")
	}

	score := extract.Score(doc)
	isLive := extract.LiveStatus(doc)
	date, timeText := extract.DateTime(doc)
	isUpcoming := match.IsUpcomingScore(score)

	if upcomingOnly && !isUpcoming && !isLive {
		return match.Result{Href: href, Outcome: match.OutcomeNotApplicable}
	}

	m := &match.Match{
		Date:       date,
		Time:       timeText,
		Team1:      teams[0],
		Team2:      teams[1],
		Score:      score,
		IsLive:     isLive,
		IsUpcoming: isUpcoming,
		URL:        matchURL,
	}

	if m.Cacheable() {
		c.cache.Set(matchURL, m)
	} else {
		// A stale completed entry may exist from before the match went
		// live again (site corrections); drop it.
		c.cache.Invalidate(matchURL)
	}

	c.metrics.IncrCounter("fetch.successes")
	return match.Result{Href: href, Outcome: match.OutcomeMatch, Match: m}
}

// joinURL resolves a possibly-relative href against the base URL.
func joinURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
