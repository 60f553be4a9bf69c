package allocator

import (
	"fmt"
	"sort"

	"github.com/matiasvr/fireline/core/model"
)

// pairVar is one boolean decision variable: resource ri serves demand di.
type pairVar struct {
	di, ri int
}

// buildProblem translates the allocation instance into a boolean assignment
// program. Only pairs passing the feasibility prefilter become variables;
// excluded pairs contribute their failed constraints to the binding set.
func (p *Planner) buildProblem(demands []model.DemandPoint, resources []model.Resource, binding map[string]bool) ([]pairVar, Problem) {
	var pairs []pairVar
	var obj []float64
	for di, d := range demands {
		for ri, r := range resources {
			if !r.Available {
				continue
			}
			failed := p.feas.Check(r, d, 0)
			if len(failed) > 0 {
				for _, name := range failed {
					if name != model.ConstraintClusterOps {
						binding[name] = true
					}
				}
				continue
			}
			pairs = append(pairs, pairVar{di: di, ri: ri})
			obj = append(obj, p.benefit.Contribution(r, d))
		}
	}

	prob := Problem{NumVars: len(pairs), Objective: obj}

	// At most one resource per demand.
	byDemand := make(map[int][]int)
	byResource := make(map[int][]int)
	byCluster := make(map[string][]int)
	for k, pv := range pairs {
		byDemand[pv.di] = append(byDemand[pv.di], k)
		byResource[pv.ri] = append(byResource[pv.ri], k)
		if c := demands[pv.di].ClusterID; c != "" {
			byCluster[c] = append(byCluster[c], k)
		}
	}
	for di := 0; di < len(demands); di++ {
		if vars := byDemand[di]; len(vars) > 0 {
			prob.Rows = append(prob.Rows, Row{
				Name:    fmt.Sprintf("demand:%s", demands[di].ID),
				Indices: vars, Coeffs: ones(len(vars)), Op: RowLE, RHS: 1,
			})
		}
	}
	// One assignment per resource per solve.
	for ri := 0; ri < len(resources); ri++ {
		if vars := byResource[ri]; len(vars) > 0 {
			prob.Rows = append(prob.Rows, Row{
				Name:    fmt.Sprintf("resource:%s", resources[ri].ID),
				Indices: vars, Coeffs: ones(len(vars)), Op: RowLE, RHS: 1,
			})
		}
	}
	// Per-cluster concurrency cap.
	clusters := make([]string, 0, len(byCluster))
	for c := range byCluster {
		clusters = append(clusters, c)
	}
	sort.Strings(clusters)
	for _, c := range clusters {
		vars := byCluster[c]
		prob.Rows = append(prob.Rows, Row{
			Name:    fmt.Sprintf("%s:%s", model.ConstraintClusterOps, c),
			Indices: vars, Coeffs: ones(len(vars)), Op: RowLE, RHS: float64(p.cfg.MaxOpsPerCluster),
		})
	}

	return pairs, prob
}

// solveExact delegates to the configured solver and maps the boolean solution
// matrix back into assignments using the same benefit and effective-capacity
// computations as the greedy path, so reporting stays consistent.
func (p *Planner) solveExact(demands []model.DemandPoint, resources []model.Resource) (outcome, SolverStatus, error) {
	out := outcome{binding: make(map[string]bool)}

	pairs, prob := p.buildProblem(demands, resources, out.binding)
	if len(pairs) == 0 {
		return out, SolverInfeasible, ErrInfeasible
	}

	sol, err := p.solver.Solve(prob)
	if err != nil {
		return out, sol.Status, err
	}
	if sol.Status != SolverOptimal && sol.Status != SolverFeasible {
		return out, sol.Status, fmt.Errorf("solver returned %s", sol.Status)
	}

	committedDemand := make(map[int]bool)
	committedResource := make(map[int]bool)
	clusterOps := make(map[string]int)
	for k, pv := range pairs {
		if sol.X[k] < 0.5 {
			continue
		}
		d := demands[pv.di]
		r := resources[pv.ri]
		out.assignments = append(out.assignments, model.Assignment{
			ResourceID:        r.ID,
			DemandID:          d.ID,
			TravelTimeHours:   r.TravelHoursTo(d.Location),
			EffectiveCapacity: p.benefit.EffectiveCapacity(r, d),
			Contribution:      p.benefit.Contribution(r, d),
		})
		committedDemand[pv.di] = true
		committedResource[pv.ri] = true
		clusterOps[d.EffectiveCluster()]++
	}

	// Saturated cluster caps are binding; duals, when the delegate reports
	// them, are attached verbatim as shadow prices.
	for _, n := range clusterOps {
		if n >= p.cfg.MaxOpsPerCluster {
			out.binding[model.ConstraintClusterOps] = true
		}
	}
	out.duals = shadowPrices(sol.Duals)

	for di, d := range demands {
		if committedDemand[di] {
			continue
		}
		anyCompatible := false
		anyFree := false
		for ri, r := range resources {
			if p.feas.typeCompatible(r, d) {
				anyCompatible = true
				if r.Available && !committedResource[ri] {
					anyFree = true
				}
			}
		}
		out.unassigned = append(out.unassigned, model.UnassignedDemand{
			DemandID: d.ID,
			Reason:   classifyUnassigned(anyCompatible, anyFree),
		})
		if d.Priority > p.cfg.MinResponseThreshold {
			out.binding[model.ConstraintMinResponse] = true
		}
	}

	return out, sol.Status, nil
}

// shadowPrices extracts per-family dual values from the solver solution,
// keyed by canonical constraint name. Absent duals yield an empty map.
func shadowPrices(duals map[string]float64) map[string]float64 {
	prices := make(map[string]float64)
	for name, v := range duals {
		if v == 0 {
			continue
		}
		// Row names are "<family>:<qualifier>"; report the strongest dual
		// per family.
		family := name
		for i := range name {
			if name[i] == ':' {
				family = name[:i]
				break
			}
		}
		if cur, ok := prices[family]; !ok || v > cur {
			prices[family] = v
		}
	}
	return prices
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
