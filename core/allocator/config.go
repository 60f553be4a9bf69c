package allocator

import "fmt"

// Config holds the tunable parameters of the allocation engine. It is
// read-only after construction; every solve receives it by value.
type Config struct {
	// MaxOpsPerCluster caps simultaneous resource commitments per demand cluster.
	MaxOpsPerCluster int `json:"max_ops_per_cluster"`
	// TravelPenaltyWeight is subtracted per travel hour from the benefit score.
	TravelPenaltyWeight float64 `json:"travel_penalty_weight"`
	// MinResponseThreshold marks the priority above which leaving a demand
	// unserved flags the min_response constraint as binding.
	MinResponseThreshold float64 `json:"min_response_threshold"`
	// PreferExactSolver enables delegation to the exact solver when one is
	// configured and the problem is large enough to warrant it.
	PreferExactSolver bool `json:"prefer_exact_solver"`
	// ExactSolverMinProblemSize is the demand count below which the greedy
	// path is used even when a solver is available.
	ExactSolverMinProblemSize int `json:"exact_solver_min_problem_size"`
	// CriticalBonus is added once to the contribution of whichever resource
	// ends up serving a critical-severity demand.
	CriticalBonus float64 `json:"critical_bonus"`
	// TypeFitStrong multiplies the benefit of a preferred resource type on a
	// high-intensity demand; TypeFitWeak penalises a weak-fit type.
	TypeFitStrong float64 `json:"type_fit_strong"`
	TypeFitWeak   float64 `json:"type_fit_weak"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpsPerCluster:          4,
		TravelPenaltyWeight:       0.5,
		MinResponseThreshold:      0.7,
		PreferExactSolver:         true,
		ExactSolverMinProblemSize: 4,
		CriticalBonus:             50,
		TypeFitStrong:             1.3,
		TypeFitWeak:               0.3,
	}
}

// Validate fails fast on malformed parameters before any solve attempt.
func (c Config) Validate() error {
	if c.MaxOpsPerCluster <= 0 {
		return fmt.Errorf("max_ops_per_cluster must be positive, got %d", c.MaxOpsPerCluster)
	}
	if c.TravelPenaltyWeight < 0 {
		return fmt.Errorf("travel_penalty_weight must not be negative, got %g", c.TravelPenaltyWeight)
	}
	if c.MinResponseThreshold < 0 {
		return fmt.Errorf("min_response_threshold must not be negative, got %g", c.MinResponseThreshold)
	}
	if c.CriticalBonus < 0 {
		return fmt.Errorf("critical_bonus must not be negative, got %g", c.CriticalBonus)
	}
	if c.TypeFitStrong < 1 {
		return fmt.Errorf("type_fit_strong must be at least 1, got %g", c.TypeFitStrong)
	}
	if c.TypeFitWeak <= 0 || c.TypeFitWeak > 1 {
		return fmt.Errorf("type_fit_weak must be within (0,1], got %g", c.TypeFitWeak)
	}
	return nil
}
