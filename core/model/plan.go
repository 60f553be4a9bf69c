package model

import "time"

// PlanStatus reports how a plan was produced, or why no solve ran.
type PlanStatus string

const (
	StatusOptimal     PlanStatus = "optimal"
	StatusFeasible    PlanStatus = "feasible"
	StatusHeuristic   PlanStatus = "greedy_heuristic"
	StatusNoDemand    PlanStatus = "no_demand"
	StatusNoResources PlanStatus = "no_resources"
)

// Constraint names shared across the feasibility checks, solver rows and
// binding-constraint reporting.
const (
	ConstraintTypeCompat  = "type_compat"
	ConstraintRange       = "range"
	ConstraintOpsHours    = "ops_hours"
	ConstraintCrewShift   = "crew_shift"
	ConstraintClusterOps  = "cluster_ops"
	ConstraintMinResponse = "min_response"
)

// Unassigned reason codes, ordered from most to least specific.
const (
	ReasonNoCompatibleResource  = "no_compatible_resource"
	ReasonAllResourcesCommitted = "all_resources_committed"
	ReasonConstraintConflict    = "constraint_conflict"
	ReasonNoResourcesAvailable  = "no_resources_available"
)

// Alternative describes a feasible but not chosen resource for an assignment.
type Alternative struct {
	ResourceID string  `json:"resource_id"`
	Name       string  `json:"name,omitempty"`
	ETAHours   float64 `json:"eta_hours"`
	Reason     string  `json:"not_recommended_reason"`
}

// Assignment pairs one resource with one demand point.
type Assignment struct {
	ResourceID         string        `json:"resource_id"`
	DemandID           string        `json:"demand_id"`
	PriorityRank       int           `json:"priority_rank"`
	TravelTimeHours    float64       `json:"travel_time_hours"`
	EffectiveCapacity  float64       `json:"effective_capacity"`
	Contribution       float64       `json:"contribution"`
	BindingConstraints []string      `json:"binding_constraints,omitempty"`
	Explanation        string        `json:"explanation,omitempty"`
	Alternatives       []Alternative `json:"alternatives,omitempty"`
}

// UnassignedDemand records a demand left without a resource and why.
type UnassignedDemand struct {
	DemandID string `json:"demand_id"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// Constraint describes a named constraint and whether it was binding at the
// solution found. ShadowPrice is populated only when an exact solver reports
// dual values.
type Constraint struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Binding     bool    `json:"is_binding"`
	ShadowPrice float64 `json:"shadow_price,omitempty"`
}

// AllocationPlan is the immutable result of one optimization run.
type AllocationPlan struct {
	ID                 string             `json:"id"`
	Scenario           string             `json:"scenario"`
	Status             PlanStatus         `json:"status"`
	Assignments        []Assignment       `json:"assignments"`
	UnassignedDemand   []UnassignedDemand `json:"unassigned_demand"`
	UnusedResources    []string           `json:"unassigned_resources"`
	BindingConstraints []Constraint       `json:"binding_constraints"`
	Objective          float64            `json:"objective_value"`
	SolveMillis        float64            `json:"solve_time_ms"`
	Timestamp          time.Time          `json:"timestamp"`
}

// AssignmentFor returns the assignment covering the demand id, if any.
func (p *AllocationPlan) AssignmentFor(demandID string) (Assignment, bool) {
	for _, a := range p.Assignments {
		if a.DemandID == demandID {
			return a, true
		}
	}
	return Assignment{}, false
}

// BindingNames returns the set of binding constraint names.
func (p *AllocationPlan) BindingNames() map[string]struct{} {
	set := make(map[string]struct{}, len(p.BindingConstraints))
	for _, c := range p.BindingConstraints {
		if c.Binding {
			set[c.Name] = struct{}{}
		}
	}
	return set
}
