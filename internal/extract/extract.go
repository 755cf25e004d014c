// Package extract pulls match fields out of parsed vlr.gg match pages.
//
// Every extractor is a pure function over a goquery document and is total:
// selectors are tried in priority order and missing markup degrades to
// placeholder values instead of an error. Keeping extraction free of
// network and caching concerns is what lets the fetch client share it
// across every code path.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vlr-matches/internal/match"
)

// Fallback selector strategies, tried in order; the first that yields a
// valid value wins.
var (
	teamSelectors = []string{
		"div.wf-title-med",
		"div.match-header-link-name",
		"a.match-header-link",
	}

	scoreSelectors = []string{
		"div.js-spoiler",
		"div.match-header-vs-score",
		"span.match-header-vs-score-winner",
	}

	liveSelectors = []string{
		"span.match-header-vs-note.mod-live",
		"span.mod-live",
		"div.match-header-vs-note.mod-live",
	}

	dateSelectors = []string{
		"div.moment-tz-convert",
		"span.moment-tz-convert",
	}
)

// upcomingSelector marks the countdown element shown before a match starts.
const upcomingSelector = "span.match-header-vs-note.mod-upcoming"

// Teams extracts both team names. A selector is accepted only when it
// yields at least two elements whose names are non-empty after stripping
// parenthetical seed annotations like "(1)". Falls back to placeholders.
func Teams(doc *goquery.Document) []string {
	for _, sel := range teamSelectors {
		elements := doc.Find(sel)
		if elements.Length() < 2 {
			continue
		}
		teams := make([]string, 0, 2)
		elements.EachWithBreak(func(i int, s *goquery.Selection) bool {
			name := strings.TrimSpace(s.Text())
			// Strip seed annotations: "Sentinels (1)" -> "Sentinels"
			if idx := strings.Index(name, "("); idx >= 0 {
				name = strings.TrimSpace(name[:idx])
			}
			teams = append(teams, name)
			return len(teams) < 2
		})
		if teams[0] != "" && teams[1] != "" {
			return teams
		}
	}
	return []string{match.UnknownTeam1, match.UnknownTeam2}
}

// Score extracts the score text. The upcoming-countdown marker wins when
// present and non-empty; otherwise the score selectors are tried in order.
// Whitespace is collapsed so "2  :  1" comes back as "2 : 1".
func Score(doc *goquery.Document) string {
	if countdown := collapse(doc.Find(upcomingSelector).First().Text()); countdown != "" {
		return countdown
	}
	for _, sel := range scoreSelectors {
		if score := collapse(doc.Find(sel).First().Text()); score != "" {
			return score
		}
	}
	return match.NotStartedScore
}

// LiveStatus reports whether the match is currently live. When no live
// marker is found, the broader match header text is searched for "live".
func LiveStatus(doc *goquery.Document) bool {
	for _, sel := range liveSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	header := doc.Find("div.match-header-vs")
	return header.Length() > 0 && strings.Contains(strings.ToLower(header.Text()), "live")
}

// DateTime extracts the match date and time display strings. The time is
// the next sibling of the date element, preferring another date-marker
// sibling over a generic div. Returns placeholder values when no selector
// matches; callers treat that pair as a soft failure, not an error.
func DateTime(doc *goquery.Document) (string, string) {
	for _, sel := range dateSelectors {
		dateElem := doc.Find(sel).First()
		if dateElem.Length() == 0 {
			continue
		}
		date := strings.TrimSpace(dateElem.Text())
		if date == "" || date == match.UnknownDate {
			continue
		}

		timeElem := dateElem.NextAllFiltered("div.moment-tz-convert").First()
		if timeElem.Length() == 0 {
			timeElem = dateElem.NextAllFiltered("div").First()
		}
		timeText := match.UnknownTime
		if timeElem.Length() > 0 {
			if t := strings.TrimSpace(timeElem.Text()); t != "" {
				timeText = t
			}
		}
		return date, timeText
	}
	return match.UnknownDate, match.UnknownTime
}

// MatchData extracts teams, score, and live flag in one pass.
func MatchData(doc *goquery.Document) (teams []string, score string, isLive bool) {
	return Teams(doc), Score(doc), LiveStatus(doc)
}

// collapse trims and collapses all interior whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
