package allocator

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matiasvr/fireline/core/logger"
	"github.com/matiasvr/fireline/core/metrics"
	"github.com/matiasvr/fireline/core/model"
)

// Planner orchestrates one optimization run: it picks the exact path when a
// solver capability is configured and the problem size warrants it, falls
// back to the greedy allocator otherwise, and normalizes both paths into the
// same plan shape. A Planner is stateless between calls and safe for
// concurrent use.
type Planner struct {
	cfg     Config
	feas    Feasibility
	benefit BenefitModel
	greedy  *GreedyAllocator
	solver  SolverCapability
	log     logger.Logger
	sink    metrics.MetricsSink
}

// Option customizes a Planner at construction time.
type Option func(*Planner)

// WithSolver injects the exact solver capability. Passing nil leaves the
// planner on the greedy path.
func WithSolver(s SolverCapability) Option {
	return func(p *Planner) { p.solver = s }
}

// WithLogger sets the planner logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) { p.log = l }
}

// WithMetrics sets the sink receiving solve events.
func WithMetrics(s metrics.MetricsSink) Option {
	return func(p *Planner) { p.sink = s }
}

// New validates the configuration and builds a planner. Malformed
// configuration is the only fatal condition of the engine.
func New(cfg Config, opts ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{
		cfg:     cfg,
		feas:    NewFeasibility(cfg),
		benefit: NewBenefitModel(cfg),
		greedy:  NewGreedyAllocator(cfg),
		log:     logger.NopLogger{},
		sink:    metrics.NopSink{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Optimize produces an allocation plan for the given snapshot of demand
// points and resources. Input problems (no demand, no resources) surface as
// plan statuses, never as errors; solver failures fall back silently to the
// greedy allocator. Caller-owned inputs are never mutated.
func (p *Planner) Optimize(demands []model.DemandPoint, resources []model.Resource, scenario string) *model.AllocationPlan {
	start := time.Now()
	plan := &model.AllocationPlan{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Timestamp: start.UTC(),
	}

	if len(demands) == 0 {
		plan.Status = model.StatusNoDemand
		plan.UnusedResources = resourceIDs(resources)
		p.record(plan, metrics.PathGreedy, len(demands), len(resources), start)
		return plan
	}

	if !anyAvailable(resources) {
		plan.Status = model.StatusNoResources
		for _, d := range demands {
			plan.UnassignedDemand = append(plan.UnassignedDemand, model.UnassignedDemand{
				DemandID: d.ID,
				Reason:   model.ReasonNoResourcesAvailable,
			})
		}
		plan.UnusedResources = resourceIDs(resources)
		p.record(plan, metrics.PathGreedy, len(demands), len(resources), start)
		return plan
	}

	out, path := p.solve(demands, resources)
	p.normalize(plan, out, resources)
	plan.SolveMillis = float64(time.Since(start).Microseconds()) / 1000
	p.record(plan, path, len(demands), len(resources), start)
	return plan
}

// solve picks the exact path when configured and worthwhile, with silent
// fallback to the greedy allocator on any delegate failure.
func (p *Planner) solve(demands []model.DemandPoint, resources []model.Resource) (outcome, metrics.SolvePath) {
	if p.solver != nil && p.cfg.PreferExactSolver && len(demands) >= p.cfg.ExactSolverMinProblemSize {
		out, status, err := p.solveExact(demands, resources)
		if err == nil {
			p.log.Debugf("exact solve succeeded with status %s", status)
			if status == SolverOptimal {
				out.status = model.StatusOptimal
			} else {
				out.status = model.StatusFeasible
			}
			return out, metrics.PathExact
		}
		p.log.Warnf("exact solve failed (%v), falling back to greedy", err)
	}
	out := p.greedy.Solve(demands, resources)
	out.status = model.StatusHeuristic
	return out, metrics.PathGreedy
}

// normalize applies the shared output shape: assignments sorted by
// contribution descending with 1-based ranks, objective as the sum of
// contributions, unused resources and binding-constraint descriptors.
func (p *Planner) normalize(plan *model.AllocationPlan, out outcome, resources []model.Resource) {
	plan.Status = out.status
	plan.Assignments = out.assignments
	plan.UnassignedDemand = out.unassigned

	sort.SliceStable(plan.Assignments, func(a, b int) bool {
		if plan.Assignments[a].Contribution != plan.Assignments[b].Contribution {
			return plan.Assignments[a].Contribution > plan.Assignments[b].Contribution
		}
		return plan.Assignments[a].DemandID < plan.Assignments[b].DemandID
	})
	assigned := make(map[string]bool, len(plan.Assignments))
	for i := range plan.Assignments {
		plan.Assignments[i].PriorityRank = i + 1
		plan.Objective += plan.Assignments[i].Contribution
		assigned[plan.Assignments[i].ResourceID] = true
	}

	for _, r := range resources {
		if !assigned[r.ID] {
			plan.UnusedResources = append(plan.UnusedResources, r.ID)
		}
	}

	plan.BindingConstraints = p.describeConstraints(out)
}

// describeConstraints builds the plan-level constraint descriptors from the
// decisive-exclusion set and any shadow prices the delegate reported.
func (p *Planner) describeConstraints(out outcome) []model.Constraint {
	descs := []model.Constraint{
		{Name: model.ConstraintTypeCompat, Description: "resource type must be compatible with the demand"},
		{Name: model.ConstraintRange, Description: "resource must reach the demand and return to base"},
		{Name: model.ConstraintOpsHours, Description: "travel must fit the remaining operational-time budget"},
		{Name: model.ConstraintCrewShift, Description: "travel must fit the remaining crew shift"},
		{Name: model.ConstraintClusterOps, Description: "maximum simultaneous operations per demand cluster"},
		{Name: model.ConstraintMinResponse, Description: "high-priority demand requires a minimum response"},
	}
	for i := range descs {
		descs[i].Binding = out.binding[descs[i].Name]
		if price, ok := out.duals[descs[i].Name]; ok {
			descs[i].ShadowPrice = price
		}
	}
	return descs
}

func (p *Planner) record(plan *model.AllocationPlan, path metrics.SolvePath, demands, resources int, start time.Time) {
	ev := metrics.SolveEvent{
		Scenario:   plan.Scenario,
		Path:       path,
		Status:     string(plan.Status),
		Demands:    demands,
		Resources:  resources,
		Assigned:   len(plan.Assignments),
		Unassigned: len(plan.UnassignedDemand),
		Objective:  plan.Objective,
		Duration:   time.Since(start),
		Time:       start,
	}
	if err := p.sink.RecordSolve(ev); err != nil {
		p.log.Errorf("record solve event: %v", err)
	}
}

func anyAvailable(resources []model.Resource) bool {
	for _, r := range resources {
		if r.Available {
			return true
		}
	}
	return false
}

func resourceIDs(resources []model.Resource) []string {
	if len(resources) == 0 {
		return nil
	}
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	return ids
}
