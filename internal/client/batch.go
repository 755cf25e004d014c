package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"vlr-matches/internal/logging"
	"vlr-matches/internal/match"
)

// ViewMode selects which matches a batch keeps.
type ViewMode string

const (
	ViewAll      ViewMode = "all"
	ViewResults  ViewMode = "results"  // completed matches only
	ViewUpcoming ViewMode = "upcoming" // filtered at the source
)

// Engine selects the concurrency model for a batch.
type Engine int

const (
	// EngineWorkerPool fans links out over a fixed set of worker
	// goroutines fed by a channel.
	EngineWorkerPool Engine = iota
	// EngineTaskGroup spawns one task per link inside an errgroup with
	// a concurrency limit.
	EngineTaskGroup
)

// Tally counts batch outcomes by category. TBD pages are tracked apart
// from failures: an unannounced match is expected, a broken fetch is not.
type Tally struct {
	Succeeded int
	TBD       int
	Failed    int
}

// BatchOptions tunes ProcessMatches. The zero value means: view all,
// worker-pool engine, no progress reporting.
type BatchOptions struct {
	ViewMode ViewMode
	Engine   Engine
	// Progress, when set, is called once per completed link regardless
	// of outcome. Purely observational.
	Progress func()
}

// ProcessMatches fetches all links concurrently and returns the kept
// results in the original listing order, along with an outcome tally.
// One link's failure never aborts its siblings; panics inside a task are
// contained and counted as failures.
func (c *Client) ProcessMatches(ctx context.Context, links []string, opts BatchOptions) ([]match.Result, Tally) {
	if opts.ViewMode == "" {
		opts.ViewMode = ViewAll
	}

	// Results are written into a slot per input index, so completion
	// order can never leak into output order.
	slots := make([]match.Result, len(links))

	switch opts.Engine {
	case EngineTaskGroup:
		c.runTaskGroup(ctx, links, opts, slots)
	default:
		c.runWorkerPool(ctx, links, opts, slots)
	}

	return c.collect(slots, opts.ViewMode)
}

// runWorkerPool processes links with a fixed-size worker pool.
func (c *Client) runWorkerPool(ctx context.Context, links []string, opts BatchOptions, slots []match.Result) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := c.cfg.MaxConcurrency
	if workers > len(links) {
		workers = len(links)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = c.processOne(ctx, links[i], opts)
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// runTaskGroup processes links as a bounded structured task group.
func (c *Client) runTaskGroup(ctx context.Context, links []string, opts BatchOptions, slots []match.Result) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)

	for i := range links {
		i := i
		g.Go(func() error {
			slots[i] = c.processOne(ctx, links[i], opts)
			// Task errors are already folded into the slot outcome;
			// returning one would cancel the siblings.
			return nil
		})
	}
	g.Wait()
}

// processOne runs a single per-link fetch with panic containment and
// progress reporting.
func (c *Client) processOne(ctx context.Context, href string, opts BatchOptions) (res match.Result) {
	defer func() {
		if r := recover(); r != nil {
			log := logging.WithComponent("batch")
			log.Error().
				Str("href", href).
				Interface("panic", r).
				Msg("match task panicked")
			res = match.Result{Href: href, Outcome: match.OutcomeFailure}
		}
		if opts.Progress != nil {
			opts.Progress()
		}
	}()
	return c.FetchMatch(ctx, href, opts.ViewMode == ViewUpcoming)
}

// collect filters slots by view mode and tallies outcomes.
func (c *Client) collect(slots []match.Result, mode ViewMode) ([]match.Result, Tally) {
	var tally Tally
	results := make([]match.Result, 0, len(slots))

	for _, res := range slots {
		switch res.Outcome {
		case match.OutcomeTBD:
			tally.TBD++
		case match.OutcomeFailure:
			tally.Failed++
		case match.OutcomeNotApplicable:
			// Filtered at the source; neither success nor failure.
		case match.OutcomeMatch:
			if mode == ViewResults && (res.Match.IsLive || res.Match.IsUpcoming) {
				continue
			}
			tally.Succeeded++
			results = append(results, res)
		}
	}
	return results, tally
}
