package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultProfilePath is where the user profile lives unless overridden.
const DefaultProfilePath = "~/.vlr-matches/profile.yaml"

// Profile holds per-user preferences that persist across runs.
type Profile struct {
	DefaultRegion   string   `yaml:"default_region,omitempty"`
	DefaultViewMode string   `yaml:"default_view_mode,omitempty"` // all|upcoming|results
	FavoriteTeams   []string `yaml:"favorite_teams,omitempty"`
	CompactMode     bool     `yaml:"compact_mode,omitempty"`
	CacheEnabled    bool     `yaml:"cache_enabled"`
}

// NewProfile returns a profile with defaults.
func NewProfile() *Profile {
	return &Profile{
		DefaultViewMode: "all",
		CacheEnabled:    true,
	}
}

// AddFavoriteTeam adds a team, preserving case and deduplicating
// case-insensitively.
func (p *Profile) AddFavoriteTeam(team string) {
	for _, existing := range p.FavoriteTeams {
		if strings.EqualFold(existing, team) {
			return
		}
	}
	p.FavoriteTeams = append(p.FavoriteTeams, team)
}

// RemoveFavoriteTeam removes a team (case-insensitive). Returns true when
// something was removed.
func (p *Profile) RemoveFavoriteTeam(team string) bool {
	for i, existing := range p.FavoriteTeams {
		if strings.EqualFold(existing, team) {
			p.FavoriteTeams = append(p.FavoriteTeams[:i], p.FavoriteTeams[i+1:]...)
			return true
		}
	}
	return false
}

// IsFavoriteTeam reports whether a team is in favorites (case-insensitive).
func (p *Profile) IsFavoriteTeam(team string) bool {
	for _, existing := range p.FavoriteTeams {
		if strings.EqualFold(existing, team) {
			return true
		}
	}
	return false
}

// LoadProfile reads the profile file, returning defaults when the file
// does not exist.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProfile(), nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	profile := NewProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return profile, nil
}

// SaveProfile writes the profile, creating the directory as needed.
func SaveProfile(profile *Profile, path string) error {
	if path == "" {
		path = DefaultProfilePath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
