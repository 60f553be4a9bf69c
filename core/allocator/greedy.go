package allocator

import (
	"sort"

	"github.com/matiasvr/fireline/core/model"
)

// GreedyAllocator is the deterministic fallback path: demand points are
// served in priority order and each receives the single best feasible
// resource still uncommitted in the current solve.
type GreedyAllocator struct {
	cfg     Config
	feas    Feasibility
	benefit BenefitModel
}

// NewGreedyAllocator builds the fallback allocator for the configuration.
func NewGreedyAllocator(cfg Config) *GreedyAllocator {
	return &GreedyAllocator{cfg: cfg, feas: NewFeasibility(cfg), benefit: NewBenefitModel(cfg)}
}

// outcome is the raw result of a solve before plan normalization.
type outcome struct {
	status      model.PlanStatus
	assignments []model.Assignment
	unassigned  []model.UnassignedDemand
	// binding records constraints that were the decisive reason for
	// excluding at least one resource-demand pair during the solve.
	binding map[string]bool
	// duals holds per-constraint shadow prices when an exact solver
	// reported them.
	duals map[string]float64
}

// Solve assigns resources to the demand points. Inputs are never mutated:
// time-budget bookkeeping happens on local copies and is discarded with the
// call. Given identical inputs the result is byte-identical on every call.
func (g *GreedyAllocator) Solve(demands []model.DemandPoint, resources []model.Resource) outcome {
	out := outcome{binding: make(map[string]bool)}

	order := demandOrder(demands)

	// Working copies so budget deductions stay local to this solve.
	working := make([]model.Resource, len(resources))
	copy(working, resources)
	committed := make([]bool, len(working))
	clusterOps := make(map[string]int)

	for _, di := range order {
		d := demands[di]
		ops := clusterOps[d.EffectiveCluster()]

		bestIdx := -1
		var bestBenefit, bestTravel float64
		anyCompatible := false
		anyFree := false
		rejected := make(map[string]bool)

		for ri := range working {
			r := working[ri]
			compatible := g.feas.typeCompatible(r, d)
			if compatible {
				anyCompatible = true
			}
			if committed[ri] || !r.Available {
				continue
			}
			if compatible {
				anyFree = true
			}
			failed := g.feas.Check(r, d, ops)
			if len(failed) > 0 {
				for _, name := range failed {
					rejected[name] = true
					out.binding[name] = true
				}
				continue
			}
			benefit := g.benefit.Benefit(r, d)
			travel := r.TravelHoursTo(d.Location)
			if bestIdx == -1 || better(benefit, travel, r.ID, bestBenefit, bestTravel, working[bestIdx].ID) {
				bestIdx, bestBenefit, bestTravel = ri, benefit, travel
			}
		}

		if bestIdx == -1 {
			reason := classifyUnassigned(anyCompatible, anyFree)
			out.unassigned = append(out.unassigned, model.UnassignedDemand{DemandID: d.ID, Reason: reason})
			if d.Priority > g.cfg.MinResponseThreshold {
				out.binding[model.ConstraintMinResponse] = true
			}
			continue
		}

		chosen := &working[bestIdx]
		out.assignments = append(out.assignments, model.Assignment{
			ResourceID:         chosen.ID,
			DemandID:           d.ID,
			TravelTimeHours:    bestTravel,
			EffectiveCapacity:  g.benefit.EffectiveCapacity(*chosen, d),
			Contribution:       g.benefit.Contribution(*chosen, d),
			BindingConstraints: sortedNames(rejected),
		})
		committed[bestIdx] = true
		clusterOps[d.EffectiveCluster()]++
		consumed := bestTravel
		if chosen.ReturnsToRefuel() {
			consumed = bestTravel * 2
		}
		chosen.HoursLeft -= consumed
		chosen.ShiftLeft -= bestTravel
	}

	return out
}

// demandOrder returns demand indices sorted descending by
// (critical tier, priority score, urgency), stable on input order.
func demandOrder(demands []model.DemandPoint) []int {
	order := make([]int, len(demands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := demands[order[a]], demands[order[b]]
		ca, cb := da.Severity == model.SeverityCritical, db.Severity == model.SeverityCritical
		if ca != cb {
			return ca
		}
		if da.Priority != db.Priority {
			return da.Priority > db.Priority
		}
		return da.UrgencyOrDefault() > db.UrgencyOrDefault()
	})
	return order
}

// better implements the resource tie-break chain: higher benefit, then lower
// travel time, then lexicographically smaller id.
func better(benefit, travel float64, id string, bestBenefit, bestTravel float64, bestID string) bool {
	if benefit != bestBenefit {
		return benefit > bestBenefit
	}
	if travel != bestTravel {
		return travel < bestTravel
	}
	return id < bestID
}

// classifyUnassigned picks the unassigned reason in priority order.
func classifyUnassigned(anyCompatible, anyFree bool) string {
	switch {
	case !anyCompatible:
		return model.ReasonNoCompatibleResource
	case !anyFree:
		return model.ReasonAllResourcesCommitted
	default:
		return model.ReasonConstraintConflict
	}
}

func sortedNames(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
