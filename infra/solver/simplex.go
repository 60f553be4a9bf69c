// Package solver provides the gonum-backed exact solver delegate for the
// allocation planner. It solves the LP relaxation of the boolean assignment
// program with the simplex method and accepts the result only when every
// variable lands on an integral value; assignment polytopes of this shape
// have integral vertices in practice, and a fractional vertex is reported as
// an error so the planner can fall back to the greedy allocator.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/matiasvr/fireline/core/allocator"
)

// integralityTol is how far from 0 or 1 a relaxed variable may land and still
// be rounded.
const integralityTol = 1e-6

// Simplex implements allocator.SolverCapability on top of
// gonum/optimize/convex/lp.
type Simplex struct {
	// Tol is the simplex pivot tolerance. Zero means the gonum default.
	Tol float64
}

// New returns a simplex delegate with the default tolerance.
func New() *Simplex {
	return &Simplex{Tol: 1e-7}
}

// Solve converts the boolean program into simplex standard form
// (minimize c·x subject to Ax = b, x >= 0) and maps the result back.
func (s *Simplex) Solve(p allocator.Problem) (allocator.Solution, error) {
	if p.NumVars == 0 {
		return allocator.Solution{Status: allocator.SolverOptimal}, nil
	}

	rows := expandRows(p)

	// One slack variable per inequality row plus an upper bound x <= 1 per
	// decision variable keeps the relaxation inside the unit box.
	numSlack := len(rows) + p.NumVars
	total := p.NumVars + numSlack

	c := make([]float64, total)
	for i, v := range p.Objective {
		c[i] = -v // maximize
	}

	a := mat.NewDense(len(rows)+p.NumVars, total, nil)
	b := make([]float64, len(rows)+p.NumVars)
	for i, row := range rows {
		for j, k := range row.Indices {
			if k < 0 || k >= p.NumVars {
				return allocator.Solution{}, fmt.Errorf("row %q references variable %d of %d", row.Name, k, p.NumVars)
			}
			a.Set(i, k, row.Coeffs[j])
		}
		a.Set(i, p.NumVars+i, 1)
		b[i] = row.RHS
	}
	for k := 0; k < p.NumVars; k++ {
		r := len(rows) + k
		a.Set(r, k, 1)
		a.Set(r, p.NumVars+len(rows)+k, 1)
		b[r] = 1
	}

	tol := s.Tol
	if tol == 0 {
		tol = 1e-7
	}
	obj, x, err := lp.Simplex(c, a, b, tol, nil)
	if err != nil {
		return allocator.Solution{Status: mapStatus(err)}, fmt.Errorf("simplex: %w", mapError(err))
	}

	sol := allocator.Solution{
		Status:    allocator.SolverOptimal,
		X:         make([]float64, p.NumVars),
		Objective: -obj,
	}
	for k := 0; k < p.NumVars; k++ {
		switch {
		case math.Abs(x[k]) <= integralityTol:
			sol.X[k] = 0
		case math.Abs(x[k]-1) <= integralityTol:
			sol.X[k] = 1
		default:
			return allocator.Solution{Status: allocator.SolverFeasible},
				fmt.Errorf("variable %d = %.6f: %w", k, x[k], allocator.ErrFractional)
		}
	}
	return sol, nil
}

// expandRows rewrites every row as a <= constraint: GE rows are negated and
// EQ rows become a <=/>= pair.
func expandRows(p allocator.Problem) []leRow {
	out := make([]leRow, 0, len(p.Rows))
	for _, row := range p.Rows {
		switch row.Op {
		case allocator.RowLE:
			out = append(out, leRow{Name: row.Name, Indices: row.Indices, Coeffs: row.Coeffs, RHS: row.RHS})
		case allocator.RowGE:
			out = append(out, negate(row))
		case allocator.RowEQ:
			out = append(out, leRow{Name: row.Name, Indices: row.Indices, Coeffs: row.Coeffs, RHS: row.RHS})
			out = append(out, negate(row))
		}
	}
	return out
}

type leRow struct {
	Name    string
	Indices []int
	Coeffs  []float64
	RHS     float64
}

func negate(row allocator.Row) leRow {
	coeffs := make([]float64, len(row.Coeffs))
	for i, v := range row.Coeffs {
		coeffs[i] = -v
	}
	return leRow{Name: row.Name, Indices: row.Indices, Coeffs: coeffs, RHS: -row.RHS}
}

func mapStatus(err error) allocator.SolverStatus {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return allocator.SolverInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return allocator.SolverUnbounded
	default:
		return allocator.SolverNoSolver
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return allocator.ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return allocator.ErrUnbounded
	default:
		return err
	}
}
