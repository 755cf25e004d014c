// Package discovery finds current VCT events on vlr.gg so users can pick
// a region instead of pasting event URLs. Discovered lists are cached for
// a day; a stale list is better than none when the site is unreachable.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/html"

	"vlr-matches/internal/config"
	"vlr-matches/internal/logging"
	"vlr-matches/internal/resilience"
)

// EventCacheTTL is how long a discovered event list stays fresh.
const EventCacheTTL = 24 * time.Hour

// vctSeriesID selects the VCT series on the vlr.gg events listing.
const vctSeriesID = "86"

// RegionAliases maps canonical regions to their accepted CLI spellings.
var RegionAliases = map[string][]string{
	"americas":  {"americas", "am"},
	"emea":      {"emea", "eu"},
	"pacific":   {"pacific", "apac"},
	"china":     {"china", "cn"},
	"champions": {"champions"},
	"masters":   {"masters"},
}

var (
	vctSlugPattern      = regexp.MustCompile(`vct-(\d{4})-([^-]+)-(.+)`)
	championsSlugPattern = regexp.MustCompile(`valorant-(champions|masters)-(\d{4})`)
	mastersCityPattern  = regexp.MustCompile(`valorant-masters-([^-]+)-(\d{4})`)
	eventIDPattern      = regexp.MustCompile(`/event/(\d+)/([^/]+)`)
	eventLinkPattern    = regexp.MustCompile(`^/event/\d+/`)
	eventNamePattern    = regexp.MustCompile(`((?:VCT \d{4}:|Valorant (?:Champions|Masters))[^$\d]+)`)
)

// Event is one discovered VCT event.
type Event struct {
	Name    string
	URL     string
	EventID string
	Slug    string
	Status  string // upcoming|ongoing|completed|unknown
	Dates   string
	Region  string
}

// Discovery fetches and caches the VCT event list.
type Discovery struct {
	cfg        config.Config
	httpClient *http.Client
	cache      *expirable.LRU[string, []Event]
}

// New creates a Discovery using the shared pipeline configuration.
func New(cfg config.Config) *Discovery {
	return &Discovery{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cache:      expirable.NewLRU[string, []Event](4, nil, EventCacheTTL),
	}
}

// fetchDocument GETs a page with the same retry classification as the
// match client: transient errors back off, permanent ones do not.
func (d *Discovery) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	log := logging.WithComponent("discovery")
	delays := resilience.NewBackoff(d.cfg.RetryBaseDelay)
	var lastErr error

	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", d.cfg.UserAgent)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if resilience.IsRetryableError(err) && attempt < d.cfg.MaxRetries-1 {
				log.Warn().Int("attempt", attempt+1).Err(err).Msg("transient error, retrying")
				if err := sleep(ctx, delays); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resilience.IsRetryableStatus(resp.StatusCode) && attempt < d.cfg.MaxRetries-1 {
				if err := sleep(ctx, delays); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}

func sleep(ctx context.Context, delays *resilience.Backoff) error {
	t := time.NewTimer(delays.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DiscoverEvents returns the current VCT events, cached for a day. When
// the network fails, a previously cached list is returned if one exists.
func (d *Discovery) DiscoverEvents(ctx context.Context, forceRefresh bool) ([]Event, error) {
	const cacheKey = "vct_events"
	log := logging.WithComponent("discovery")

	if !forceRefresh {
		if events, ok := d.cache.Get(cacheKey); ok {
			log.Debug().Msg("using cached event list")
			return events, nil
		}
	}

	log.Info().Msg("discovering VCT events")
	listURL := fmt.Sprintf("%s/events/?series_id=%s", d.cfg.BaseURL, vctSeriesID)
	doc, err := d.fetchDocument(ctx, listURL)
	if err != nil {
		if events, ok := d.cache.Get(cacheKey); ok {
			log.Warn().Err(err).Msg("events page unreachable, serving cached list")
			return events, nil
		}
		return nil, err
	}

	events := d.parseEvents(doc)
	sort.Slice(events, func(i, j int) bool {
		a, _ := strconv.Atoi(events[i].EventID)
		b, _ := strconv.Atoi(events[j].EventID)
		return a < b
	})

	d.cache.Add(cacheKey, events)
	log.Info().Int("count", len(events)).Msg("discovered VCT events")
	return events, nil
}

// parseEvents extracts VCT events from the events listing document.
func (d *Discovery) parseEvents(doc *goquery.Document) []Event {
	var events []Event
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !eventLinkPattern.MatchString(href) {
			return
		}
		m := eventIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		eventID, slug := m[1], m[2]
		if seen[eventID] {
			return
		}
		seen[eventID] = true

		name := slugToName(slug)
		if name == "" {
			raw := strings.TrimSpace(s.Text())
			if nm := eventNamePattern.FindStringSubmatch(raw); nm != nil {
				name = strings.TrimSpace(nm[1])
			} else if len(raw) > 50 {
				name = raw[:50]
			} else {
				name = raw
			}
		}
		if len(name) < 5 || !isVCTInternational(name) {
			return
		}

		events = append(events, Event{
			Name:    name,
			URL:     fmt.Sprintf("%s/event/matches/%s/%s/", d.cfg.BaseURL, eventID, slug),
			EventID: eventID,
			Slug:    slug,
			Status:  statusOf(s),
			Dates:   strings.TrimSpace(s.Find("[class*=date]").First().Text()),
			Region:  parseRegion(name),
		})
	})
	return events
}

// slugToName converts an event slug to a display name, or "" when the
// slug does not follow a known VCT pattern.
func slugToName(slug string) string {
	if m := vctSlugPattern.FindStringSubmatch(slug); m != nil {
		year, region, stage := m[1], m[2], m[3]
		return fmt.Sprintf("VCT %s: %s %s", year, capitalize(region), titleCase(strings.ReplaceAll(stage, "-", " ")))
	}
	if m := mastersCityPattern.FindStringSubmatch(slug); m != nil {
		return fmt.Sprintf("Valorant Masters %s %s", capitalize(m[1]), m[2])
	}
	if m := championsSlugPattern.FindStringSubmatch(slug); m != nil {
		return fmt.Sprintf("Valorant %s %s", capitalize(m[1]), m[2])
	}
	return ""
}

// isVCTInternational filters out Challengers and Game Changers circuits.
func isVCTInternational(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "challengers") || strings.Contains(lower, "game changers") {
		return false
	}
	return strings.Contains(lower, "vct") ||
		strings.Contains(lower, "champions") ||
		strings.Contains(lower, "masters")
}

// statusOf reads the event status out of the card's text nodes. Whole
// tokens only, so a team called "Ongoing Gaming" would not confuse it.
func statusOf(s *goquery.Selection) string {
	for _, token := range textTokens(s) {
		switch strings.ToLower(token) {
		case "ongoing":
			return "ongoing"
		case "completed":
			return "completed"
		}
	}
	return "upcoming"
}

// textTokens collects the trimmed text nodes under a selection.
func textTokens(s *goquery.Selection) []string {
	var tokens []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				tokens = append(tokens, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return tokens
}

// parseRegion classifies an event name into a canonical region.
func parseRegion(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "americas"):
		return "americas"
	case strings.Contains(lower, "emea"):
		return "emea"
	case strings.Contains(lower, "pacific"):
		return "pacific"
	case strings.Contains(lower, "china"):
		return "china"
	case strings.Contains(lower, "champions"):
		return "champions"
	case strings.Contains(lower, "masters"):
		return "masters"
	default:
		return "other"
	}
}

// CanonicalRegion resolves a region alias to its canonical name, or ""
// when the alias is unknown.
func CanonicalRegion(alias string) string {
	lower := strings.ToLower(strings.TrimSpace(alias))
	for canonical, aliases := range RegionAliases {
		for _, a := range aliases {
			if a == lower {
				return canonical
			}
		}
	}
	return ""
}

// EventsByRegion returns the discovered events for a region alias.
func (d *Discovery) EventsByRegion(ctx context.Context, region string, forceRefresh bool) ([]Event, error) {
	canonical := CanonicalRegion(region)
	if canonical == "" {
		return nil, fmt.Errorf("unknown region: %s", region)
	}
	events, err := d.DiscoverEvents(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	var matched []Event
	for _, e := range events {
		if e.Region == canonical {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// EventForRegion picks the best event for a region: ongoing first, then
// upcoming, then whatever is most recent.
func (d *Discovery) EventForRegion(ctx context.Context, region string, forceRefresh bool) (*Event, error) {
	events, err := d.EventsByRegion(ctx, region, forceRefresh)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	for _, status := range []string{"ongoing", "upcoming"} {
		for i := range events {
			if events[i].Status == status {
				return &events[i], nil
			}
		}
	}
	return &events[0], nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
