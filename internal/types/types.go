package types

import (
	"fmt"
	"time"
)

// Role is a player's categorical playing-style classification.
type Role string

const (
	RoleWicketKeeper Role = "WK"
	RoleBatter       Role = "BAT"
	RoleAllRounder   Role = "AR"
	RoleBowler       Role = "BOWL"
)

// AllRoles lists every role in tie-break precedence order (WK > AR > BOWL > BAT).
var AllRoles = []Role{RoleWicketKeeper, RoleAllRounder, RoleBowler, RoleBatter}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWicketKeeper, RoleBatter, RoleAllRounder, RoleBowler:
		return true
	}
	return false
}

// Precedence returns the tie-break rank of a role; lower wins.
func (r Role) Precedence() int {
	for i, role := range AllRoles {
		if role == r {
			return i
		}
	}
	return len(AllRoles)
}

// Appearance is one historical match entry for a player.
type Appearance struct {
	MatchID string    `json:"match_id"`
	Date    time.Time `json:"date"`
	Points  float64   `json:"actual_fp"`
}

// FeatureVector holds the point-in-time features for a player ahead of a
// target match. No value may depend on any match on or after TargetDate.
type FeatureVector struct {
	PlayerID       string    `json:"player_id"`
	TargetDate     time.Time `json:"target_date"`
	AvgPointsLast5 float64   `json:"avg_fp_last_5"`
	MatchesPlayed  int       `json:"matches_played"`
	Role           Role      `json:"role"`
	RoleDefaulted  bool      `json:"role_defaulted,omitempty"`
}

// FeatureNames lists the model-facing feature names in stable order.
var FeatureNames = []string{
	"avg_fp_last_5", "matches_played",
	"role_AR", "role_BAT", "role_BOWL", "role_WK",
}

// Values returns the numeric feature map with the role one-hot encoded.
func (f FeatureVector) Values() map[string]float64 {
	values := map[string]float64{
		"avg_fp_last_5":  f.AvgPointsLast5,
		"matches_played": float64(f.MatchesPlayed),
		"role_AR":        0,
		"role_BAT":       0,
		"role_BOWL":      0,
		"role_WK":        0,
	}
	values["role_"+string(f.Role)] = 1
	return values
}

// CandidatePlayer is one selectable player for a single match inference.
// Instances are immutable after creation.
type CandidatePlayer struct {
	PlayerID        string  `json:"player_id"`
	Name            string  `json:"name"`
	Role            Role    `json:"role"`
	Team            string  `json:"team"`
	Credits         float64 `json:"credits"`
	PredictedPoints float64 `json:"predicted_fp"`
}

// SquadSelection is the optimizer's output: the selected players plus
// aggregates recomputed from the selection, never stored independently.
type SquadSelection struct {
	Players         []CandidatePlayer `json:"players"`
	TotalCredits    float64           `json:"total_credits"`
	TotalPredicted  float64           `json:"total_predicted_fp"`
	RoleCounts      map[Role]int      `json:"role_counts"`
	TeamCounts      map[string]int    `json:"team_counts"`
}

// NewSquadSelection derives all aggregates from the given players.
func NewSquadSelection(players []CandidatePlayer) *SquadSelection {
	selection := &SquadSelection{
		Players:    players,
		RoleCounts: make(map[Role]int),
		TeamCounts: make(map[string]int),
	}
	for _, p := range players {
		selection.TotalCredits += p.Credits
		selection.TotalPredicted += p.PredictedPoints
		selection.RoleCounts[p.Role]++
		selection.TeamCounts[p.Team]++
	}
	return selection
}

// ProgressUpdate is pushed to transport listeners while a recommendation
// request works through the pipeline.
type ProgressUpdate struct {
	RequestID string    `json:"request_id"`
	Stage     string    `json:"stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard error payload returned by the API.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthStatus is the health/readiness check payload.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Season returns the seasonal partition (calendar year) a date falls in.
func Season(date time.Time) int {
	return date.Year()
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}
