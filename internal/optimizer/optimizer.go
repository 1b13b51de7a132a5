// Package optimizer selects the highest-scoring legal squad from a candidate
// pool by translating the selection rules into a 0/1 integer program.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/ilp"
	"github.com/pitchside/cricket-xi/internal/types"
)

// Select builds and solves the squad-selection program. On success the
// returned selection is proven optimal: no legal squad has a strictly higher
// total predicted score. An unsatisfiable pool yields *Infeasible with the
// reason preserved; malformed input yields *ValidationError.
func Select(ctx context.Context, candidates []types.CandidatePlayer, rules SelectionRules, solver ilp.Solver, log *logrus.Entry) (*types.SquadSelection, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := validateCandidates(candidates, rules); err != nil {
		return nil, err
	}

	problem := buildProblem(candidates, rules)

	start := time.Now()
	solution, err := solver.Solve(ctx, problem)
	if err != nil {
		switch {
		case errors.Is(err, ilp.ErrInfeasible):
			return nil, &Infeasible{Reason: diagnose(candidates, rules)}
		case errors.Is(err, context.DeadlineExceeded):
			return nil, &Infeasible{Reason: "solver timed out before proving a squad optimal"}
		default:
			return nil, err
		}
	}

	selected := make([]types.CandidatePlayer, 0, rules.SquadSize)
	for i, pick := range solution.Selected {
		if pick {
			selected = append(selected, candidates[i])
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].PredictedPoints > selected[j].PredictedPoints
	})

	log.WithFields(logrus.Fields{
		"candidates":    len(candidates),
		"objective":     solution.Objective,
		"solve_time_ms": time.Since(start).Milliseconds(),
	}).Info("Squad optimization complete")

	return types.NewSquadSelection(selected), nil
}

func validateCandidates(candidates []types.CandidatePlayer, rules SelectionRules) error {
	if len(candidates) < rules.SquadSize {
		return &ValidationError{
			Field:  "candidates",
			Reason: fmt.Sprintf("need at least %d candidates, got %d", rules.SquadSize, len(candidates)),
		}
	}

	seen := make(map[string]bool, len(candidates))
	teams := make(map[string]bool)
	for _, c := range candidates {
		if c.PlayerID == "" {
			return &ValidationError{Field: "candidates", Reason: "candidate with empty player_id"}
		}
		if seen[c.PlayerID] {
			return &ValidationError{Field: "candidates", Reason: "duplicate player_id " + c.PlayerID}
		}
		seen[c.PlayerID] = true
		if !c.Role.Valid() {
			return &ValidationError{Field: "candidates", Reason: fmt.Sprintf("player %s has unknown role %q", c.PlayerID, c.Role)}
		}
		if c.Credits <= 0 {
			return &ValidationError{Field: "candidates", Reason: fmt.Sprintf("player %s has non-positive credits", c.PlayerID)}
		}
		if c.Team == "" {
			return &ValidationError{Field: "candidates", Reason: fmt.Sprintf("player %s has empty team", c.PlayerID)}
		}
		teams[c.Team] = true
	}
	if len(teams) > 2 {
		return &ValidationError{Field: "candidates", Reason: fmt.Sprintf("candidates span %d teams, at most 2 allowed", len(teams))}
	}
	return nil
}

// buildProblem translates the rules into constraint rows. Every rule becomes
// one or more indicator-coefficient rows over the same variable vector.
func buildProblem(candidates []types.CandidatePlayer, rules SelectionRules) ilp.Problem {
	n := len(candidates)

	objective := make([]float64, n)
	creditRow := make([]float64, n)
	for i, c := range candidates {
		objective[i] = c.PredictedPoints
		creditRow[i] = c.Credits
	}

	constraints := []ilp.Constraint{
		{Name: "squad_size", Coeffs: ones(n), Relation: ilp.EQ, Bound: float64(rules.SquadSize)},
		{Name: "credit_budget", Coeffs: creditRow, Relation: ilp.LE, Bound: rules.CreditBudget},
	}

	for _, role := range types.AllRoles {
		bounds, ok := rules.RoleBounds[role]
		if !ok {
			continue
		}
		row := make([]float64, n)
		for i, c := range candidates {
			if c.Role == role {
				row[i] = 1
			}
		}
		constraints = append(constraints,
			ilp.Constraint{Name: "role_" + string(role) + "_min", Coeffs: row, Relation: ilp.GE, Bound: float64(bounds.Min)},
			ilp.Constraint{Name: "role_" + string(role) + "_max", Coeffs: row, Relation: ilp.LE, Bound: float64(bounds.Max)},
		)
	}

	teams := teamNames(candidates)
	for _, team := range teams {
		row := make([]float64, n)
		for i, c := range candidates {
			if c.Team == team {
				row[i] = 1
			}
		}
		constraints = append(constraints, ilp.Constraint{
			Name: "team_" + team + "_max", Coeffs: row, Relation: ilp.LE, Bound: float64(rules.MaxPerTeam),
		})
		if len(teams) == 2 && rules.MinPerTeam > 0 {
			constraints = append(constraints, ilp.Constraint{
				Name: "team_" + team + "_min", Coeffs: row, Relation: ilp.GE, Bound: float64(rules.MinPerTeam),
			})
		}
	}

	return ilp.Problem{Maximize: objective, Constraints: constraints}
}

// diagnose names the most likely binding cause of infeasibility, so the
// caller's error message points at something actionable.
func diagnose(candidates []types.CandidatePlayer, rules SelectionRules) string {
	roleCounts := make(map[types.Role]int)
	cheapest := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		roleCounts[c.Role]++
		cheapest = append(cheapest, c.Credits)
	}

	for _, role := range types.AllRoles {
		bounds, ok := rules.RoleBounds[role]
		if !ok {
			continue
		}
		if roleCounts[role] < bounds.Min {
			return fmt.Sprintf("only %d %s candidates available, rules require at least %d",
				roleCounts[role], role, bounds.Min)
		}
	}

	sort.Float64s(cheapest)
	minCost := 0.0
	for i := 0; i < rules.SquadSize && i < len(cheapest); i++ {
		minCost += cheapest[i]
	}
	if minCost > rules.CreditBudget {
		return fmt.Sprintf("cheapest possible squad costs %.1f credits, budget is %.1f",
			minCost, rules.CreditBudget)
	}

	return "constraints cannot be satisfied together for this candidate pool"
}

func teamNames(candidates []types.CandidatePlayer) []string {
	set := make(map[string]bool)
	for _, c := range candidates {
		set[c.Team] = true
	}
	teams := make([]string, 0, len(set))
	for team := range set {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}

func ones(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = 1
	}
	return row
}
