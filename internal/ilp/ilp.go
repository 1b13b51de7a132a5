// Package ilp provides a small 0/1 integer linear programming abstraction:
// maximize an objective over binary variables subject to linear constraints.
// Selection policies are expressed as Problem data, so rule changes never
// require touching solver code.
package ilp

import (
	"context"
	"errors"
	"fmt"
)

// Relation is the comparison direction of a constraint.
type Relation int

const (
	LE Relation = iota // sum <= bound
	GE                 // sum >= bound
	EQ                 // sum == bound
)

func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	}
	return "?"
}

// Constraint is one linear restriction over the binary variables.
type Constraint struct {
	Name     string
	Coeffs   []float64
	Relation Relation
	Bound    float64
}

// Problem is a complete 0/1 maximization instance. All coefficient slices
// must have the same length as Maximize.
type Problem struct {
	Maximize    []float64
	Constraints []Constraint
}

// Validate checks dimensional consistency before solving.
func (p Problem) Validate() error {
	n := len(p.Maximize)
	if n == 0 {
		return errors.New("ilp: empty objective")
	}
	for _, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("ilp: constraint %q has %d coefficients, want %d", c.Name, len(c.Coeffs), n)
		}
	}
	return nil
}

// Solution is a proven-optimal assignment.
type Solution struct {
	Selected  []bool
	Objective float64
}

// ErrInfeasible reports that no assignment satisfies every constraint.
var ErrInfeasible = errors.New("ilp: no feasible solution")

// Solver finds a proven-optimal solution to a 0/1 problem, or ErrInfeasible,
// or the context's error if cancelled mid-search.
type Solver interface {
	Solve(ctx context.Context, p Problem) (*Solution, error)
}
