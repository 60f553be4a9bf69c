package allocator

import "errors"

// SolverStatus is the outcome reported by an exact solver delegate.
type SolverStatus int

const (
	SolverNoSolver SolverStatus = iota
	SolverOptimal
	SolverFeasible
	SolverInfeasible
	SolverUnbounded
)

// String returns the canonical name of the status.
func (s SolverStatus) String() string {
	switch s {
	case SolverOptimal:
		return "OPTIMAL"
	case SolverFeasible:
		return "FEASIBLE"
	case SolverInfeasible:
		return "INFEASIBLE"
	case SolverUnbounded:
		return "UNBOUNDED"
	default:
		return "NO_SOLVER"
	}
}

// RowOp is the comparison operator of a constraint row.
type RowOp int

const (
	RowLE RowOp = iota
	RowGE
	RowEQ
)

// Row is one sparse linear constraint over the decision variables.
type Row struct {
	Name    string
	Indices []int
	Coeffs  []float64
	Op      RowOp
	RHS     float64
}

// Problem is a boolean assignment program: maximize Objective subject to
// Rows, with every variable constrained to {0,1}.
type Problem struct {
	NumVars   int
	Objective []float64
	Rows      []Row
}

// Solution carries the variable values and, when the delegate provides them,
// per-row dual values keyed by row name.
type Solution struct {
	Status    SolverStatus
	X         []float64
	Objective float64
	Duals     map[string]float64
}

// SolverCapability is the injected exact-solver boundary. A nil capability
// means no solver is configured; the planner then always takes the greedy
// path. Failures never surface to the caller of Optimize: the contract is
// silent fallback.
type SolverCapability interface {
	Solve(p Problem) (Solution, error)
}

// Sentinel errors shared by solver implementations.
var (
	ErrNoSolver   = errors.New("no exact solver configured")
	ErrInfeasible = errors.New("problem infeasible")
	ErrUnbounded  = errors.New("problem unbounded")
	ErrFractional = errors.New("relaxation produced a fractional solution")
)
