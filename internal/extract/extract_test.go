package extract

import (
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"vlr-matches/internal/match"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func TestCompletedMatchFixture(t *testing.T) {
	doc := loadFixture(t, "match_completed.html")

	teams := Teams(doc)
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0] != "Sentinels" || teams[1] != "LOUD" {
		t.Errorf("expected [Sentinels LOUD], got %v", teams)
	}

	if score := Score(doc); score != "2 : 1" {
		t.Errorf("expected score '2 : 1', got %q", score)
	}

	if LiveStatus(doc) {
		t.Error("completed match should not be live")
	}

	date, timeText := DateTime(doc)
	if date != "Saturday, February 14th" {
		t.Errorf("unexpected date: %q", date)
	}
	if timeText != "12:00 PM EST" {
		t.Errorf("unexpected time: %q", timeText)
	}
}

func TestUpcomingMatchFixture(t *testing.T) {
	doc := loadFixture(t, "match_upcoming.html")

	score := Score(doc)
	if score != "1h 30m" {
		t.Errorf("expected countdown '1h 30m', got %q", score)
	}
	if !match.IsUpcomingScore(score) {
		t.Error("countdown score should classify as upcoming")
	}
	if LiveStatus(doc) {
		t.Error("upcoming match should not be live")
	}
}

func TestLiveMatchFixture(t *testing.T) {
	doc := loadFixture(t, "match_live.html")

	if !LiveStatus(doc) {
		t.Error("expected live match to be detected")
	}
	if score := Score(doc); score != "1 : 0" {
		t.Errorf("expected score '1 : 0', got %q", score)
	}
}

func TestTeamsFallbackSelectors(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected []string
	}{
		{
			name: "primary selector",
			html: `<div class="wf-title-med">Team A (1)</div>
			       <div class="wf-title-med">Team B (2)</div>`,
			expected: []string{"Team A", "Team B"},
		},
		{
			name: "second selector when primary missing",
			html: `<div class="match-header-link-name">Cloud9</div>
			       <div class="match-header-link-name">NRG</div>`,
			expected: []string{"Cloud9", "NRG"},
		},
		{
			name: "single element falls through to placeholders",
			html: `<div class="wf-title-med">Lonely Team</div>`,
			expected: []string{match.UnknownTeam1, match.UnknownTeam2},
		},
		{
			name: "empty name after annotation strip falls through",
			html: `<div class="wf-title-med">(1)</div>
			       <div class="wf-title-med">Team B</div>`,
			expected: []string{match.UnknownTeam1, match.UnknownTeam2},
		},
		{
			name:     "no selectors match",
			html:     `<div class="something-else">nope</div>`,
			expected: []string{match.UnknownTeam1, match.UnknownTeam2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teams := Teams(docFromString(t, tt.html))
			if len(teams) < 2 {
				t.Fatalf("Teams must always return at least 2 names, got %d", len(teams))
			}
			if teams[0] != tt.expected[0] || teams[1] != tt.expected[1] {
				t.Errorf("Teams() = %v, expected %v", teams, tt.expected)
			}
		})
	}
}

func TestScoreFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "upcoming countdown wins over score",
			html:     `<span class="match-header-vs-note mod-upcoming"> 0h  38m </span><div class="js-spoiler">2 : 0</div>`,
			expected: "0h 38m",
		},
		{
			name:     "empty countdown falls through to score",
			html:     `<span class="match-header-vs-note mod-upcoming">  </span><div class="js-spoiler">2 : 0</div>`,
			expected: "2 : 0",
		},
		{
			name:     "secondary score selector",
			html:     `<div class="match-header-vs-score"> 13 : 11 </div>`,
			expected: "13 : 11",
		},
		{
			name:     "nothing found returns sentinel",
			html:     `<div class="unrelated"></div>`,
			expected: match.NotStartedScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(docFromString(t, tt.html)); got != tt.expected {
				t.Errorf("Score() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestLiveStatusHeaderFallback(t *testing.T) {
	doc := docFromString(t, `<div class="match-header-vs">Map 2 LIVE now</div>`)
	if !LiveStatus(doc) {
		t.Error("expected header substring fallback to detect live status")
	}

	doc = docFromString(t, `<div class="match-header-vs">final</div>`)
	if LiveStatus(doc) {
		t.Error("expected non-live header to report false")
	}
}

func TestDateTimeMissingReturnsPlaceholders(t *testing.T) {
	doc := docFromString(t, `<div class="no-dates-here"></div>`)
	date, timeText := DateTime(doc)
	if date != match.UnknownDate || timeText != match.UnknownTime {
		t.Errorf("expected placeholder pair, got %q / %q", date, timeText)
	}
}

func TestDateTimeGenericSiblingFallback(t *testing.T) {
	doc := docFromString(t, `<div>
		<div class="moment-tz-convert">Friday, March 6th</div>
		<div>9:00 AM PST</div>
	</div>`)
	date, timeText := DateTime(doc)
	if date != "Friday, March 6th" {
		t.Errorf("unexpected date: %q", date)
	}
	if timeText != "9:00 AM PST" {
		t.Errorf("unexpected time: %q", timeText)
	}
}
