package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"vlr-matches/internal/client"
	"vlr-matches/internal/config"
	"vlr-matches/internal/discovery"
	"vlr-matches/internal/export"
	"vlr-matches/internal/format"
	"vlr-matches/internal/logging"
	"vlr-matches/internal/match"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// DefaultConfigPath is where the pipeline config lives unless overridden.
const DefaultConfigPath = "~/.vlr-matches/config.yaml"

var (
	flagRegion      string
	flagEventURL    string
	flagUpcoming    bool
	flagResults     bool
	flagFavorites   bool
	flagNoCache     bool
	flagClearCache  bool
	flagListRegions bool
	flagRefresh     bool
	flagExport      string
	flagOutput      string
	flagCompact     bool
	flagNoColor     bool
	flagConfig      string
	flagVerbose     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vlr-matches",
		Short: "Show VCT match schedules and results from vlr.gg",
		Long: `A CLI tool that scrapes VCT match schedules and results from vlr.gg.
Pick a region (or pass an event URL) to see its current event's matches,
with live scores, countdowns for upcoming games, and final results.`,
		SilenceUsage: true,
		RunE:         runMatches,
	}

	cmd.Flags().StringVar(&flagRegion, "region", "", "Region: americas, emea, pacific, china, champions, masters")
	cmd.Flags().StringVar(&flagEventURL, "event-url", "", "Explicit event matches URL (overrides --region)")
	cmd.Flags().BoolVar(&flagUpcoming, "upcoming", false, "Show only upcoming matches")
	cmd.Flags().BoolVar(&flagResults, "results", false, "Show only completed matches")
	cmd.Flags().BoolVar(&flagFavorites, "favorites", false, "Show only matches involving favorite teams")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the match cache for this run")
	cmd.Flags().BoolVar(&flagClearCache, "clear-cache", false, "Clear the match cache and exit")
	cmd.Flags().BoolVar(&flagListRegions, "list-regions", false, "List discovered events per region and exit")
	cmd.Flags().BoolVar(&flagRefresh, "refresh", false, "Force event rediscovery, ignoring the event cache")
	cmd.Flags().StringVar(&flagExport, "export", "", "Export format: json or csv")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Export file path (required with --export)")
	cmd.Flags().BoolVar(&flagCompact, "compact", false, "One line per match")
	cmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&flagConfig, "config", DefaultConfigPath, "Config file path")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newFavoritesCmd())

	return cmd
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	path, err := config.ExpandPath(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if flagNoCache {
		cfg.CacheEnabled = false
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// runMatches is the main command logic
func runMatches(cmd *cobra.Command, args []string) error {
	if flagUpcoming && flagResults {
		return fmt.Errorf("--upcoming and --results are mutually exclusive")
	}
	if flagExport != "" && flagOutput == "" {
		return fmt.Errorf("--export requires --output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closeLog, err := logging.Init(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		NoColor: flagNoColor,
	})
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer closeLog()

	profile, err := config.LoadProfile("")
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	applyProfile(profile, cmd)

	if !profile.CacheEnabled {
		cfg.CacheEnabled = false
	}

	cl, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}

	if flagClearCache {
		removed := cl.Cache().Clear()
		fmt.Printf("Cleared %d cache entries.\n", removed)
		return nil
	}

	ctx := cmd.Context()
	disc := discovery.New(cfg)

	if flagListRegions {
		return listRegions(ctx, disc)
	}

	eventURL, eventName, err := resolveEvent(ctx, disc)
	if err != nil {
		return err
	}

	links, err := cl.FetchEventMatches(ctx, eventURL, "")
	if err != nil {
		return fmt.Errorf("fetching event matches: %w", err)
	}
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "Found %d match links\n", len(links))
	}

	results, tally := cl.ProcessMatches(ctx, links, client.BatchOptions{
		ViewMode: viewMode(),
		Progress: progressReporter(len(links)),
	})

	matches := keptMatches(results)
	if flagFavorites {
		matches = filterFavorites(matches, profile)
	}

	if flagExport != "" {
		f, err := export.ParseFormat(flagExport)
		if err != nil {
			return err
		}
		if err := export.ExportMatches(matches, flagOutput, f); err != nil {
			return err
		}
		fmt.Printf("Exported %d matches to %s\n", len(matches), flagOutput)
		return nil
	}

	st := format.NewStyler(!flagNoColor)
	if err := format.WriteMatches(os.Stdout, matches, format.Options{
		Styler:  st,
		Compact: flagCompact || profile.CompactMode,
		Title:   eventName,
	}); err != nil {
		return err
	}
	format.WriteSummary(os.Stdout, len(matches), tally.TBD, tally.Failed, st)
	return nil
}

// applyProfile fills in defaults for flags the user did not set.
func applyProfile(profile *config.Profile, cmd *cobra.Command) {
	if flagRegion == "" && flagEventURL == "" {
		flagRegion = profile.DefaultRegion
	}
	if !cmd.Flags().Changed("upcoming") && !cmd.Flags().Changed("results") {
		switch profile.DefaultViewMode {
		case "upcoming":
			flagUpcoming = true
		case "results":
			flagResults = true
		}
	}
}

// resolveEvent picks the event to list, from --event-url or discovery.
func resolveEvent(ctx context.Context, disc *discovery.Discovery) (url, name string, err error) {
	if flagEventURL != "" {
		return flagEventURL, "", nil
	}
	if flagRegion == "" {
		return "", "", fmt.Errorf("pass --region or --event-url (try --list-regions)")
	}
	ev, err := disc.EventForRegion(ctx, flagRegion, flagRefresh)
	if err != nil {
		return "", "", err
	}
	if ev == nil {
		return "", "", fmt.Errorf("no current event found for region %q", flagRegion)
	}
	return ev.URL, ev.Name, nil
}

// listRegions prints the discovered events grouped by region.
func listRegions(ctx context.Context, disc *discovery.Discovery) error {
	events, err := disc.DiscoverEvents(ctx, flagRefresh)
	if err != nil {
		return err
	}
	byRegion := make(map[string][]discovery.Event)
	for _, e := range events {
		byRegion[e.Region] = append(byRegion[e.Region], e)
	}

	regions := []string{"americas", "emea", "pacific", "china", "masters", "champions", "other"}
	for _, region := range regions {
		evs := byRegion[region]
		if len(evs) == 0 {
			continue
		}
		fmt.Printf("%s:\n", region)
		for _, e := range evs {
			line := fmt.Sprintf("  %s [%s]", e.Name, e.Status)
			if e.Dates != "" {
				line += " " + e.Dates
			}
			fmt.Println(line)
		}
	}
	return nil
}

func viewMode() client.ViewMode {
	switch {
	case flagUpcoming:
		return client.ViewUpcoming
	case flagResults:
		return client.ViewResults
	default:
		return client.ViewAll
	}
}

// progressReporter writes a running counter to stderr in verbose mode.
func progressReporter(total int) func() {
	if !flagVerbose || total == 0 {
		return nil
	}
	var done atomic.Int64
	return func() {
		n := done.Add(1)
		fmt.Fprintf(os.Stderr, "\rFetching matches %d/%d", n, total)
		if int(n) == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// keptMatches extracts the Match values out of batch results.
func keptMatches(results []match.Result) []match.Match {
	matches := make([]match.Match, 0, len(results))
	for _, r := range results {
		if r.Outcome == match.OutcomeMatch && r.Match != nil {
			matches = append(matches, *r.Match)
		}
	}
	return matches
}

// filterFavorites keeps matches involving at least one favorite team.
func filterFavorites(matches []match.Match, profile *config.Profile) []match.Match {
	if len(profile.FavoriteTeams) == 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if profile.IsFavoriteTeam(m.Team1) || profile.IsFavoriteTeam(m.Team2) {
			kept = append(kept, m)
		}
	}
	return kept
}

// Execute runs the CLI. Interrupts cancel in-flight fetches.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
