package optimizer

import (
	"fmt"

	"github.com/pitchside/cricket-xi/internal/types"
)

// Bounds is an inclusive [Min, Max] count range.
type Bounds struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// SelectionRules is the complete selection policy expressed as data. The
// optimizer translates rules into constraints mechanically, so a contest
// format change is a rules change, not a code change.
type SelectionRules struct {
	SquadSize    int                  `json:"squad_size" mapstructure:"squad_size"`
	CreditBudget float64              `json:"credit_budget" mapstructure:"credit_budget"`
	RoleBounds   map[types.Role]Bounds `json:"role_bounds" mapstructure:"role_bounds"`
	MaxPerTeam   int                  `json:"max_per_team" mapstructure:"max_per_team"`
	// MinPerTeam applies only when candidates come from exactly two teams.
	MinPerTeam int `json:"min_per_team" mapstructure:"min_per_team"`
}

// DefaultRules returns the standard contest format: 11 players within 100
// credits, role ranges WK 1-4 / BAT 3-6 / AR 1-4 / BOWL 3-6, at most 7 and
// at least 1 from each of the two teams.
func DefaultRules() SelectionRules {
	return SelectionRules{
		SquadSize:    11,
		CreditBudget: 100,
		RoleBounds: map[types.Role]Bounds{
			types.RoleWicketKeeper: {Min: 1, Max: 4},
			types.RoleBatter:       {Min: 3, Max: 6},
			types.RoleAllRounder:   {Min: 1, Max: 4},
			types.RoleBowler:       {Min: 3, Max: 6},
		},
		MaxPerTeam: 7,
		MinPerTeam: 1,
	}
}

// Validate checks the rules are internally coherent before any solve.
func (r SelectionRules) Validate() error {
	if r.SquadSize <= 0 {
		return &ValidationError{Field: "squad_size", Reason: "must be positive"}
	}
	if r.CreditBudget <= 0 {
		return &ValidationError{Field: "credit_budget", Reason: "must be positive"}
	}
	if r.MaxPerTeam <= 0 {
		return &ValidationError{Field: "max_per_team", Reason: "must be positive"}
	}
	minSum, maxSum := 0, 0
	for role, bounds := range r.RoleBounds {
		if !role.Valid() {
			return &ValidationError{Field: "role_bounds", Reason: fmt.Sprintf("unknown role %q", role)}
		}
		if bounds.Min < 0 || bounds.Max < bounds.Min {
			return &ValidationError{Field: "role_bounds", Reason: fmt.Sprintf("invalid bounds for role %s", role)}
		}
		minSum += bounds.Min
		maxSum += bounds.Max
	}
	if len(r.RoleBounds) == len(types.AllRoles) && (minSum > r.SquadSize || maxSum < r.SquadSize) {
		return &ValidationError{Field: "role_bounds", Reason: "role bounds cannot sum to squad size"}
	}
	return nil
}

// Infeasible reports that no squad satisfies the rules for the given
// candidate pool. It is a structured result, not a panic path: callers map
// it to a 422 with the reason intact.
type Infeasible struct {
	Reason string `json:"reason"`
}

func (e *Infeasible) Error() string {
	return "no feasible squad: " + e.Reason
}

// ValidationError reports malformed optimizer input.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
