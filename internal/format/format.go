// Package format renders match lists for the terminal.
package format

import (
	"fmt"
	"io"
	"strings"

	"vlr-matches/internal/match"
)

// ANSI escape codes used by the styler.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Styler applies ANSI colors, or passes text through when disabled.
type Styler struct {
	enabled bool
}

// NewStyler creates a Styler. Pass false for plain output (pipes, --no-color).
func NewStyler(enabled bool) *Styler {
	return &Styler{enabled: enabled}
}

func (s *Styler) wrap(code, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return code + text + ansiReset
}

func (s *Styler) Bold(text string) string   { return s.wrap(ansiBold, text) }
func (s *Styler) Dim(text string) string    { return s.wrap(ansiDim, text) }
func (s *Styler) Live(text string) string   { return s.wrap(ansiRed, text) }
func (s *Styler) Score(text string) string  { return s.wrap(ansiGreen, text) }
func (s *Styler) ETA(text string) string    { return s.wrap(ansiYellow, text) }
func (s *Styler) Header(text string) string { return s.wrap(ansiCyan, text) }

// Options controls how a match list is rendered.
type Options struct {
	Styler  *Styler
	Compact bool
	Title   string
}

// WriteMatches renders matches as human-readable text.
func WriteMatches(w io.Writer, matches []match.Match, opts Options) error {
	st := opts.Styler
	if st == nil {
		st = NewStyler(false)
	}

	if opts.Title != "" {
		fmt.Fprintln(w, st.Header(st.Bold(opts.Title)))
		fmt.Fprintln(w, st.Dim(strings.Repeat("=", len(opts.Title))))
	}

	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return nil
	}

	for i := range matches {
		writeMatch(w, &matches[i], st, opts.Compact)
		if !opts.Compact && i < len(matches)-1 {
			fmt.Fprintln(w, st.Dim(strings.Repeat("-", 40)))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d matches\n", len(matches))
	return nil
}

func writeMatch(w io.Writer, m *match.Match, st *Styler, compact bool) {
	versus := fmt.Sprintf("%s vs %s", st.Bold(m.Team1), st.Bold(m.Team2))

	if compact {
		fmt.Fprintf(w, "%s | %s | %s\n", st.Dim(fmt.Sprintf("%s %s", m.Date, m.Time)), versus, scoreLine(m, st))
		return
	}

	fmt.Fprintf(w, "%s %s\n", m.Date, m.Time)
	fmt.Fprintf(w, "  %s\n", versus)
	fmt.Fprintf(w, "  %s\n", scoreLine(m, st))
	if m.URL != "" {
		fmt.Fprintf(w, "  %s\n", st.Dim(m.URL))
	}
}

// scoreLine renders the status portion of a match line. Live matches
// show the running score, upcoming ones their ETA, finished ones the
// final score.
func scoreLine(m *match.Match, st *Styler) string {
	switch {
	case m.IsLive:
		return fmt.Sprintf("Score: %s %s", st.Score(m.Score), st.Live("LIVE"))
	case m.IsUpcoming:
		return st.ETA(match.FormatETA(m.Score))
	default:
		return fmt.Sprintf("Score: %s", st.Score(m.Score))
	}
}

// WriteSummary renders the batch tally after a listing.
func WriteSummary(w io.Writer, shown, tbd, failed int, st *Styler) {
	if st == nil {
		st = NewStyler(false)
	}
	parts := []string{fmt.Sprintf("%d shown", shown)}
	if tbd > 0 {
		parts = append(parts, fmt.Sprintf("%d TBD skipped", tbd))
	}
	if failed > 0 {
		parts = append(parts, st.Live(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintf(w, "%s\n", st.Dim(strings.Join(parts, ", ")))
}
