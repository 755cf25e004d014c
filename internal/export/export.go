// Package export writes match lists to JSON or CSV files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vlr-matches/internal/match"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (use json or csv)", s)
	}
}

// jsonDocument is the envelope written by JSON exports.
type jsonDocument struct {
	Matches []match.Match `json:"matches"`
	Count   int           `json:"count"`
}

// ExportMatches writes matches to path in the given format, creating
// parent directories as needed.
func ExportMatches(matches []match.Match, path string, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	switch format {
	case FormatJSON:
		return writeJSON(matches, path)
	case FormatCSV:
		return writeCSV(matches, path)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeJSON(matches []match.Match, path string) error {
	doc := jsonDocument{Matches: matches, Count: len(matches)}
	if doc.Matches == nil {
		doc.Matches = []match.Match{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding matches: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

var csvHeader = []string{"date_time", "team1", "team2", "score", "status", "url"}

func writeCSV(matches []match.Match, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range matches {
		if err := w.Write(matchRecord(&matches[i])); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func matchRecord(m *match.Match) []string {
	return []string{
		fmt.Sprintf("%s %s", m.Date, m.Time),
		m.Team1,
		m.Team2,
		m.Score,
		m.Status(),
		m.URL,
	}
}
