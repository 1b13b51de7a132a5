package matchdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Match is a ball-by-ball match record in the cricsheet JSON layout.
type Match struct {
	ID      string    `json:"-"`
	Info    Info      `json:"info"`
	Innings []Innings `json:"innings"`
}

// Info carries the match metadata: sides, rosters and the player registry.
type Info struct {
	Dates    []string            `json:"dates"`
	Teams    []string            `json:"teams"`
	Players  map[string][]string `json:"players"`
	Registry Registry            `json:"registry"`
}

// Registry maps player names to stable player identifiers.
type Registry struct {
	People map[string]string `json:"people"`
}

// Innings is one innings of a match.
type Innings struct {
	Team  string `json:"team"`
	Overs []Over `json:"overs"`
}

// Over is one over of deliveries.
type Over struct {
	Over       int        `json:"over"`
	Deliveries []Delivery `json:"deliveries"`
}

// Delivery is a single ball.
type Delivery struct {
	Batter     string         `json:"batter"`
	Bowler     string         `json:"bowler"`
	NonStriker string         `json:"non_striker"`
	Runs       Runs           `json:"runs"`
	Extras     map[string]int `json:"extras,omitempty"`
	Wickets    []Wicket       `json:"wickets,omitempty"`
}

// Runs breaks down the runs scored off a delivery.
type Runs struct {
	Batter int `json:"batter"`
	Extras int `json:"extras"`
	Total  int `json:"total"`
}

// Wicket records a dismissal on a delivery.
type Wicket struct {
	Kind      string    `json:"kind"`
	PlayerOut string    `json:"player_out"`
	Fielders  []Fielder `json:"fielders,omitempty"`
}

// Fielder is a fielder credited on a dismissal.
type Fielder struct {
	Name string `json:"name"`
}

// Date returns the first scheduled date of the match.
func (m *Match) Date() (time.Time, error) {
	if len(m.Info.Dates) == 0 {
		return time.Time{}, fmt.Errorf("match %s has no dates", m.ID)
	}
	date, err := time.Parse(dateLayout, m.Info.Dates[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("match %s has invalid date %q: %w", m.ID, m.Info.Dates[0], err)
	}
	return date, nil
}

// Season returns the seasonal partition (calendar year) of the match.
func (m *Match) Season() (int, error) {
	date, err := m.Date()
	if err != nil {
		return 0, err
	}
	return date.Year(), nil
}

// PlayerID resolves a player name through the registry.
func (i Info) PlayerID(name string) (string, bool) {
	id, ok := i.Registry.People[name]
	return id, ok
}

// TeamOf returns the side a named player belongs to, or "" if unknown.
func (i Info) TeamOf(name string) string {
	for _, team := range i.Teams {
		for _, player := range i.Players[team] {
			if player == name {
				return team
			}
		}
	}
	return ""
}

// Validate checks the structural invariants the pipeline relies on.
func (m *Match) Validate() error {
	if len(m.Info.Teams) != 2 {
		return fmt.Errorf("match must have exactly two teams, got %d", len(m.Info.Teams))
	}
	if _, err := m.Date(); err != nil {
		return err
	}
	for _, team := range m.Info.Teams {
		if len(m.Info.Players[team]) == 0 {
			return fmt.Errorf("team %q has no listed players", team)
		}
	}
	return nil
}

// Parse decodes a match from raw JSON.
func Parse(data []byte) (*Match, error) {
	var match Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, fmt.Errorf("failed to decode match JSON: %w", err)
	}
	return &match, nil
}

// Load reads and decodes a single match file.
func Load(path string) (*Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read match file: %w", err)
	}
	match, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	match.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return match, nil
}

// LoadDir loads every .json match in a directory, sorted chronologically.
// Chronological order is what keeps downstream feature building leak-free.
func LoadDir(dir string) ([]*Match, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read match directory: %w", err)
	}

	matches := make([]*Match, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		match, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, err := match.Date(); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		di, _ := matches[i].Date()
		dj, _ := matches[j].Date()
		if di.Equal(dj) {
			return matches[i].ID < matches[j].ID
		}
		return di.Before(dj)
	})

	return matches, nil
}
