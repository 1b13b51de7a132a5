package ilp

import (
	"context"
	"math"
	"sort"
)

const eps = 1e-9

// ctx cancellation is polled once per this many nodes.
const nodeCheckInterval = 4096

// BranchBound is an exact depth-first branch-and-bound solver for 0/1
// problems. It proves optimality: the returned solution's objective is the
// maximum over all feasible assignments. Variables are explored in descending
// objective order so strong incumbents appear early and pruning bites hard;
// for roster-sized problems the search completes in milliseconds.
type BranchBound struct{}

// NewBranchBound returns an exact 0/1 solver.
func NewBranchBound() *BranchBound { return &BranchBound{} }

type searchState struct {
	order []int     // sorted position -> original index
	obj   []float64 // objective, sorted descending
	cons  []Constraint

	// Per-constraint achievable suffix sums, indexed [constraint][position].
	sufNeg [][]float64
	sufPos [][]float64

	// Prefix sums of the sorted objective, for cardinality-tightened bounds.
	preObj []float64
	// Suffix sums of positive objective terms, the fallback bound.
	sufPosObj []float64

	// cardBound is set when the problem carries an all-ones EQ constraint
	// (a fixed selection size); it tightens the objective bound to the top-k
	// remaining terms.
	hasCard   bool
	cardBound int

	cur      []bool
	lhs      []float64
	curObj   float64
	selected int

	best    float64
	bestSel []bool

	nodes int
}

// Solve implements Solver.
func (b *BranchBound) Solve(ctx context.Context, p Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := newSearchState(p)
	if err := s.dfs(ctx, 0); err != nil {
		return nil, err
	}
	if s.bestSel == nil {
		return nil, ErrInfeasible
	}
	return &Solution{Selected: s.bestSel, Objective: s.best}, nil
}

func newSearchState(p Problem) *searchState {
	n := len(p.Maximize)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Maximize[order[a]] > p.Maximize[order[b]]
	})

	obj := make([]float64, n)
	for pos, idx := range order {
		obj[pos] = p.Maximize[idx]
	}

	cons := make([]Constraint, len(p.Constraints))
	for ci, c := range p.Constraints {
		coeffs := make([]float64, n)
		for pos, idx := range order {
			coeffs[pos] = c.Coeffs[idx]
		}
		cons[ci] = Constraint{Name: c.Name, Coeffs: coeffs, Relation: c.Relation, Bound: c.Bound}
	}

	sufNeg := make([][]float64, len(cons))
	sufPos := make([][]float64, len(cons))
	for ci, c := range cons {
		sufNeg[ci] = make([]float64, n+1)
		sufPos[ci] = make([]float64, n+1)
		for i := n - 1; i >= 0; i-- {
			sufNeg[ci][i] = sufNeg[ci][i+1] + math.Min(0, c.Coeffs[i])
			sufPos[ci][i] = sufPos[ci][i+1] + math.Max(0, c.Coeffs[i])
		}
	}

	preObj := make([]float64, n+1)
	for i := 0; i < n; i++ {
		preObj[i+1] = preObj[i] + obj[i]
	}
	sufPosObj := make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		sufPosObj[i] = sufPosObj[i+1] + math.Max(0, obj[i])
	}

	s := &searchState{
		order:     order,
		obj:       obj,
		cons:      cons,
		sufNeg:    sufNeg,
		sufPos:    sufPos,
		preObj:    preObj,
		sufPosObj: sufPosObj,
		cur:       make([]bool, n),
		lhs:       make([]float64, len(cons)),
		best:      math.Inf(-1),
	}

	for _, c := range cons {
		if c.Relation != EQ {
			continue
		}
		allOnes := true
		for _, coeff := range c.Coeffs {
			if coeff != 1 {
				allOnes = false
				break
			}
		}
		if allOnes {
			s.hasCard = true
			s.cardBound = int(math.Round(c.Bound))
			break
		}
	}

	return s
}

func (s *searchState) dfs(ctx context.Context, pos int) error {
	s.nodes++
	if s.nodes%nodeCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	// Feasibility: the remaining variables must still be able to satisfy
	// every constraint.
	for ci, c := range s.cons {
		lo := s.lhs[ci] + s.sufNeg[ci][pos]
		hi := s.lhs[ci] + s.sufPos[ci][pos]
		switch c.Relation {
		case LE:
			if lo > c.Bound+eps {
				return nil
			}
		case GE:
			if hi < c.Bound-eps {
				return nil
			}
		case EQ:
			if lo > c.Bound+eps || hi < c.Bound-eps {
				return nil
			}
		}
	}

	// Objective bound: with a fixed selection size, exactly (cardBound -
	// selected) more picks remain, and the sorted order makes the next ones
	// the best possible. Otherwise fall back to all remaining positives.
	ub := s.curObj
	if s.hasCard {
		remaining := s.cardBound - s.selected
		if remaining < 0 || remaining > len(s.obj)-pos {
			return nil
		}
		ub += s.preObj[pos+remaining] - s.preObj[pos]
	} else {
		ub += s.sufPosObj[pos]
	}
	if ub <= s.best+eps {
		return nil
	}

	if pos == len(s.obj) {
		s.best = s.curObj
		s.bestSel = make([]bool, len(s.cur))
		for i, idx := range s.order {
			s.bestSel[idx] = s.cur[i]
		}
		return nil
	}

	// Include branch first: high-objective variables make good incumbents.
	s.cur[pos] = true
	s.selected++
	s.curObj += s.obj[pos]
	for ci := range s.cons {
		s.lhs[ci] += s.cons[ci].Coeffs[pos]
	}
	if err := s.dfs(ctx, pos+1); err != nil {
		return err
	}
	s.cur[pos] = false
	s.selected--
	s.curObj -= s.obj[pos]
	for ci := range s.cons {
		s.lhs[ci] -= s.cons[ci].Coeffs[pos]
	}

	return s.dfs(ctx, pos+1)
}
