package optimizer

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-xi/internal/ilp"
	"github.com/pitchside/cricket-xi/internal/types"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log.WithField("test", true)
}

// twoTeamPool builds 22 candidates where the unconstrained top eleven all
// play for Team A, so the per-team cap forces a non-trivial optimum.
func twoTeamPool() []types.CandidatePlayer {
	roles := []types.Role{
		types.RoleWicketKeeper, types.RoleBatter, types.RoleBatter, types.RoleBatter,
		types.RoleAllRounder, types.RoleBowler, types.RoleBowler, types.RoleBowler,
		types.RoleWicketKeeper, types.RoleBatter, types.RoleAllRounder,
		types.RoleBowler, types.RoleBatter, types.RoleAllRounder, types.RoleBatter,
		types.RoleWicketKeeper, types.RoleBowler, types.RoleBatter, types.RoleAllRounder,
		types.RoleBowler, types.RoleBatter, types.RoleWicketKeeper,
	}

	pool := make([]types.CandidatePlayer, 22)
	for i := range pool {
		team := "Team A"
		if i >= 11 {
			team = "Team B"
		}
		pool[i] = types.CandidatePlayer{
			PlayerID:        fmt.Sprintf("p%d", i+1),
			Name:            fmt.Sprintf("Player %d", i+1),
			Role:            roles[i],
			Team:            team,
			Credits:         8.0,
			PredictedPoints: float64(99 - i),
		}
	}
	return pool
}

func TestSelect_TeamCapForcesSplit(t *testing.T) {
	squad, err := Select(context.Background(), twoTeamPool(), DefaultRules(), ilp.NewBranchBound(), testLogger())
	require.NoError(t, err)

	// Top 7 of Team A plus top 4 of Team B is the unique optimum.
	want := map[string]bool{
		"p1": true, "p2": true, "p3": true, "p4": true, "p5": true,
		"p6": true, "p7": true, "p12": true, "p13": true, "p14": true, "p15": true,
	}
	require.Len(t, squad.Players, 11)
	for _, p := range squad.Players {
		assert.True(t, want[p.PlayerID], "unexpected pick %s", p.PlayerID)
	}

	assert.InDelta(t, 1018.0, squad.TotalPredicted, 1e-9)
	assert.InDelta(t, 88.0, squad.TotalCredits, 1e-9)
	assert.Equal(t, 7, squad.TeamCounts["Team A"])
	assert.Equal(t, 4, squad.TeamCounts["Team B"])
}

func TestSelect_SquadSatisfiesAllRules(t *testing.T) {
	rules := DefaultRules()
	squad, err := Select(context.Background(), twoTeamPool(), rules, ilp.NewBranchBound(), testLogger())
	require.NoError(t, err)

	assert.Len(t, squad.Players, rules.SquadSize)
	assert.LessOrEqual(t, squad.TotalCredits, rules.CreditBudget)
	for role, bounds := range rules.RoleBounds {
		count := squad.RoleCounts[role]
		assert.GreaterOrEqual(t, count, bounds.Min, "role %s below minimum", role)
		assert.LessOrEqual(t, count, bounds.Max, "role %s above maximum", role)
	}
	for team, count := range squad.TeamCounts {
		assert.LessOrEqual(t, count, rules.MaxPerTeam, "team %s over cap", team)
		assert.GreaterOrEqual(t, count, rules.MinPerTeam, "team %s under minimum", team)
	}
}

func TestSelect_MatchesBruteForce(t *testing.T) {
	// 16 candidates keeps exhaustive enumeration cheap: C(16,11) = 4368.
	pool := twoTeamPool()[:16]
	rules := DefaultRules()

	squad, err := Select(context.Background(), pool, rules, ilp.NewBranchBound(), testLogger())
	require.NoError(t, err)

	best := math.Inf(-1)
	for mask := 0; mask < 1<<len(pool); mask++ {
		var picks []types.CandidatePlayer
		for i := range pool {
			if mask&(1<<i) != 0 {
				picks = append(picks, pool[i])
			}
		}
		if len(picks) != rules.SquadSize {
			continue
		}
		candidate := types.NewSquadSelection(picks)
		if !legal(candidate, rules) {
			continue
		}
		if candidate.TotalPredicted > best {
			best = candidate.TotalPredicted
		}
	}

	require.False(t, math.IsInf(best, -1), "brute force found no legal squad")
	assert.InDelta(t, best, squad.TotalPredicted, 1e-9)
}

func legal(s *types.SquadSelection, rules SelectionRules) bool {
	if s.TotalCredits > rules.CreditBudget {
		return false
	}
	for role, bounds := range rules.RoleBounds {
		if s.RoleCounts[role] < bounds.Min || s.RoleCounts[role] > bounds.Max {
			return false
		}
	}
	for _, count := range s.TeamCounts {
		if count > rules.MaxPerTeam {
			return false
		}
	}
	if len(s.TeamCounts) == 2 {
		for _, count := range s.TeamCounts {
			if count < rules.MinPerTeam {
				return false
			}
		}
	}
	return true
}

func TestSelect_NoKeeperIsInfeasible(t *testing.T) {
	pool := twoTeamPool()[:12]
	for i := range pool {
		if pool[i].Role == types.RoleWicketKeeper {
			pool[i].Role = types.RoleBatter
		}
	}

	squad, err := Select(context.Background(), pool, DefaultRules(), ilp.NewBranchBound(), testLogger())
	assert.Nil(t, squad)

	var infeasible *Infeasible
	require.ErrorAs(t, err, &infeasible)
	assert.Contains(t, infeasible.Reason, "WK")
}

func TestSelect_BudgetTooTightIsInfeasible(t *testing.T) {
	pool := twoTeamPool()
	for i := range pool {
		pool[i].Credits = 10.5
	}

	squad, err := Select(context.Background(), pool, DefaultRules(), ilp.NewBranchBound(), testLogger())
	assert.Nil(t, squad)

	var infeasible *Infeasible
	require.ErrorAs(t, err, &infeasible)
	assert.Contains(t, infeasible.Reason, "budget")
}

func TestSelect_TooFewCandidates(t *testing.T) {
	squad, err := Select(context.Background(), twoTeamPool()[:8], DefaultRules(), ilp.NewBranchBound(), testLogger())
	assert.Nil(t, squad)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "candidates", validationErr.Field)
}

func TestSelect_DuplicatePlayerID(t *testing.T) {
	pool := twoTeamPool()
	pool[1].PlayerID = pool[0].PlayerID

	_, err := Select(context.Background(), pool, DefaultRules(), ilp.NewBranchBound(), testLogger())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "duplicate")
}

func TestSelect_UnknownRole(t *testing.T) {
	pool := twoTeamPool()
	pool[3].Role = types.Role("SLIP")

	_, err := Select(context.Background(), pool, DefaultRules(), ilp.NewBranchBound(), testLogger())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "SLIP")
}

func TestSelect_ThreeTeamsRejected(t *testing.T) {
	pool := twoTeamPool()
	pool[21].Team = "Team C"

	_, err := Select(context.Background(), pool, DefaultRules(), ilp.NewBranchBound(), testLogger())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "teams")
}

func TestSelectionRules_Validate(t *testing.T) {
	rules := DefaultRules()
	assert.NoError(t, rules.Validate())

	bad := DefaultRules()
	bad.SquadSize = 0
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.RoleBounds[types.RoleBatter] = Bounds{Min: 5, Max: 2}
	assert.Error(t, bad.Validate())
}
