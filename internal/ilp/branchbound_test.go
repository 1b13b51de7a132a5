package ilp

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_SimpleKnapsack(t *testing.T) {
	// Pick items maximizing value under a weight cap of 10.
	p := Problem{
		Maximize: []float64{60, 100, 120},
		Constraints: []Constraint{
			{Name: "weight", Coeffs: []float64{1, 2, 3}, Relation: LE, Bound: 5},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 220.0, solution.Objective, 1e-9)
	assert.Equal(t, []bool{false, true, true}, solution.Selected)
}

func TestSolve_CardinalityEquality(t *testing.T) {
	// Exactly 2 picks: the best pair wins even though all 4 fit the budget.
	p := Problem{
		Maximize: []float64{10, 8, 6, 4},
		Constraints: []Constraint{
			{Name: "count", Coeffs: []float64{1, 1, 1, 1}, Relation: EQ, Bound: 2},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, solution.Objective, 1e-9)
	assert.Equal(t, []bool{true, true, false, false}, solution.Selected)
}

func TestSolve_GreedyIsNotOptimal(t *testing.T) {
	// The highest-value item blocks the true optimum; greedy picks item 0
	// (value 10, weight 5) but items 1+2 are worth more together.
	p := Problem{
		Maximize: []float64{10, 6, 6},
		Constraints: []Constraint{
			{Name: "weight", Coeffs: []float64{5, 3, 2}, Relation: LE, Bound: 5},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, solution.Objective, 1e-9)
	assert.Equal(t, []bool{false, true, true}, solution.Selected)
}

func TestSolve_Infeasible(t *testing.T) {
	p := Problem{
		Maximize: []float64{1, 1},
		Constraints: []Constraint{
			{Name: "count", Coeffs: []float64{1, 1}, Relation: EQ, Bound: 3},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	assert.Nil(t, solution)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestSolve_ConflictingConstraints(t *testing.T) {
	p := Problem{
		Maximize: []float64{5, 4, 3},
		Constraints: []Constraint{
			{Name: "at_least_two", Coeffs: []float64{1, 1, 1}, Relation: GE, Bound: 2},
			{Name: "at_most_one", Coeffs: []float64{1, 1, 1}, Relation: LE, Bound: 1},
		},
	}

	_, err := NewBranchBound().Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestSolve_NegativeObjectiveWithEquality(t *testing.T) {
	// Forced to pick 2 even though every term hurts; solver must still pick
	// the least bad pair.
	p := Problem{
		Maximize: []float64{-5, -1, -3},
		Constraints: []Constraint{
			{Name: "count", Coeffs: []float64{1, 1, 1}, Relation: EQ, Bound: 2},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, -4.0, solution.Objective, 1e-9)
	assert.Equal(t, []bool{false, true, true}, solution.Selected)
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	// 12 variables is small enough to enumerate all 4096 assignments.
	objective := []float64{7.5, 3.2, 9.9, 1.1, 4.4, 8.8, 2.2, 6.6, 5.5, 0.5, 3.3, 7.7}
	weights := []float64{4, 2, 6, 1, 3, 5, 2, 4, 3, 1, 2, 5}
	p := Problem{
		Maximize: objective,
		Constraints: []Constraint{
			{Name: "count", Coeffs: ones(len(objective)), Relation: EQ, Bound: 5},
			{Name: "weight", Coeffs: weights, Relation: LE, Bound: 15},
		},
	}

	solution, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)

	best := math.Inf(-1)
	for mask := 0; mask < 1<<len(objective); mask++ {
		count, weight, value := 0, 0.0, 0.0
		for i := range objective {
			if mask&(1<<i) != 0 {
				count++
				weight += weights[i]
				value += objective[i]
			}
		}
		if count == 5 && weight <= 15 && value > best {
			best = value
		}
	}

	assert.InDelta(t, best, solution.Objective, 1e-9)
}

func TestSolve_ExpiredDeadline(t *testing.T) {
	p := Problem{
		Maximize: []float64{1, 2, 3},
		Constraints: []Constraint{
			{Name: "count", Coeffs: ones(3), Relation: EQ, Bound: 2},
		},
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	solution, err := NewBranchBound().Solve(ctx, p)
	assert.Nil(t, solution)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSolve_DimensionMismatch(t *testing.T) {
	p := Problem{
		Maximize: []float64{1, 2},
		Constraints: []Constraint{
			{Name: "bad", Coeffs: []float64{1}, Relation: LE, Bound: 1},
		},
	}

	_, err := NewBranchBound().Solve(context.Background(), p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func ones(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = 1
	}
	return row
}
