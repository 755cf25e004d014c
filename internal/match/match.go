package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder values used when extraction cannot find real data.
const (
	UnknownTeam1 = "Unknown Team 1"
	UnknownTeam2 = "Unknown Team 2"
	UnknownDate  = "Unknown date"
	UnknownTime  = "Unknown time"

	// NotStartedScore is the sentinel score for matches without a
	// visible score or countdown on the page.
	NotStartedScore = "Match has not started yet."
)

// countdownPattern matches countdown score text like "1h 30m" or "2d 5h".
var countdownPattern = regexp.MustCompile(`^\d+[dhm]\s`)

// Match represents one scheduled, live, or completed Valorant match.
// Instances are never mutated after construction; the JSON tags define
// the cache and export wire shape.
type Match struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Score      string `json:"score"`
	IsLive     bool   `json:"is_live"`
	IsUpcoming bool   `json:"is_upcoming"`
	URL        string `json:"url"`
}

// IsUpcomingScore reports whether a score text indicates a match that has
// not been played yet: either the not-started sentinel or a countdown.
func IsUpcomingScore(score string) bool {
	return strings.HasPrefix(strings.ToLower(score), "match has not started") ||
		countdownPattern.MatchString(score)
}

// IsCountdown reports whether a score text is a countdown like "1h 30m".
func IsCountdown(score string) bool {
	return countdownPattern.MatchString(score)
}

// FormatETA renders the time-until-start for an upcoming match. Countdown
// scores become "in 1h 30m"; anything else falls back to "UPCOMING".
func FormatETA(score string) string {
	if countdownPattern.MatchString(score) {
		return fmt.Sprintf("in %s", score)
	}
	return "UPCOMING"
}

// Status returns the export/display status of a match:
// "live", "upcoming", or "completed".
func (m *Match) Status() string {
	switch {
	case m.IsLive:
		return "live"
	case m.IsUpcoming:
		return "upcoming"
	default:
		return "completed"
	}
}

// Cacheable reports whether the match is stable enough to cache. Live and
// upcoming matches are transient and must always be re-fetched.
func (m *Match) Cacheable() bool {
	return !m.IsLive && !m.IsUpcoming
}

// Outcome classifies the result of fetching a single match link.
type Outcome int

const (
	// OutcomeMatch means a Match was extracted successfully.
	OutcomeMatch Outcome = iota
	// OutcomeTBD means the page exists but teams are not announced yet.
	OutcomeTBD
	// OutcomeNotApplicable means the match was filtered out by the
	// requested view mode; it is neither a success nor a failure.
	OutcomeNotApplicable
	// OutcomeFailure means the fetch failed after retries, the circuit
	// was open, or the page could not be processed.
	OutcomeFailure
)

// String returns a short name for the outcome, used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeTBD:
		return "tbd"
	case OutcomeNotApplicable:
		return "not-applicable"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result pairs a listing link with the outcome of fetching it.
// Match is non-nil only when Outcome is OutcomeMatch.
type Result struct {
	Href    string
	Outcome Outcome
	Match   *Match
}
