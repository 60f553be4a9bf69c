package allocator

import (
	"encoding/json"
	"testing"

	"github.com/matiasvr/fireline/core/model"
)

func newTestPlanner(t *testing.T, cfg Config, opts ...Option) *Planner {
	t.Helper()
	p, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	return p
}

func TestGreedy_PicksCompatibleResource(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())
	fire := testFire("F001", model.Location{Lat: -42.9, Lon: -71.4})
	fire.Priority = 10

	incompatible := model.Resource{
		ID: "RC001", Kind: model.KindRepairCrew,
		Location: testBase, Base: testBase,
		Capacity: 5, SpeedKMH: 30, RangeKM: 200,
		HoursLeft: 8, ShiftLeft: 8, Available: true,
	}
	crew := testCrew("BR002")

	plan := p.Optimize([]model.DemandPoint{fire}, []model.Resource{incompatible, crew}, "baseline")

	if len(plan.Assignments) != 1 || len(plan.UnassignedDemand) != 0 {
		t.Fatalf("expected single assignment, got %+v", plan)
	}
	if plan.Assignments[0].ResourceID != "BR002" {
		t.Fatalf("expected BR002 chosen, got %s", plan.Assignments[0].ResourceID)
	}
	if !contains(plan.UnusedResources, "RC001") {
		t.Fatalf("incompatible resource must appear unused: %v", plan.UnusedResources)
	}
}

func TestGreedy_ClusterCapConflict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpsPerCluster = 1
	p := newTestPlanner(t, cfg)

	f1 := testFire("F001", model.Location{Lat: -42.85, Lon: -71.55})
	f2 := testFire("F002", model.Location{Lat: -42.86, Lon: -71.56})
	f1.ClusterID, f2.ClusterID = "north", "north"
	f1.Priority = 8

	plan := p.Optimize(
		[]model.DemandPoint{f1, f2},
		[]model.Resource{testCrew("BR001"), testCrew("BR002")},
		"baseline",
	)

	if len(plan.Assignments) != 1 {
		t.Fatalf("expected exactly one assignment, got %d", len(plan.Assignments))
	}
	if len(plan.UnassignedDemand) != 1 {
		t.Fatalf("expected one unassigned demand")
	}
	u := plan.UnassignedDemand[0]
	if u.Reason != model.ReasonConstraintConflict {
		t.Fatalf("expected constraint_conflict, got %s", u.Reason)
	}
	if !bindingSet(plan)[model.ConstraintClusterOps] {
		t.Fatalf("cluster_ops must be binding: %+v", plan.BindingConstraints)
	}
}

func TestGreedy_ExhaustedResourceStaysUnused(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	tired := testCrew("BR-TIRED")
	tired.HoursLeft = 0.01
	tired.ShiftLeft = 0.01
	fresh := testCrew("BR-FRESH")
	fire := testFire("F001", model.Location{Lat: -42.85, Lon: -71.55})

	plan := p.Optimize([]model.DemandPoint{fire}, []model.Resource{tired, fresh}, "baseline")

	if len(plan.Assignments) != 1 || plan.Assignments[0].ResourceID != "BR-FRESH" {
		t.Fatalf("expected fresh crew assigned: %+v", plan.Assignments)
	}
	if !contains(plan.UnusedResources, "BR-TIRED") {
		t.Fatalf("exhausted crew must be listed unused: %v", plan.UnusedResources)
	}
}

func TestGreedy_ReasonPriorityOrder(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	pothole := model.DemandPoint{ID: "I001", Kind: model.DemandRoadDamage, Location: testBase, Priority: 3}
	crew := testCrew("BR001")

	plan := p.Optimize([]model.DemandPoint{pothole}, []model.Resource{crew}, "baseline")
	if got := plan.UnassignedDemand[0].Reason; got != model.ReasonNoCompatibleResource {
		t.Fatalf("expected no_compatible_resource, got %s", got)
	}

	// Two fires, one crew: the second fire finds every compatible resource
	// already committed.
	f1 := testFire("F001", model.Location{Lat: -42.9, Lon: -71.35})
	f2 := testFire("F002", model.Location{Lat: -42.91, Lon: -71.36})
	f1.Priority = 9
	plan = p.Optimize([]model.DemandPoint{f1, f2}, []model.Resource{crew}, "baseline")
	if got := plan.UnassignedDemand[0].Reason; got != model.ReasonAllResourcesCommitted {
		t.Fatalf("expected all_resources_committed, got %s", got)
	}
}

func TestGreedy_SeverityAndPriorityOrdering(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	low := testFire("F-LOW", model.Location{Lat: -42.9, Lon: -71.35})
	low.Priority = 100
	critical := testFire("F-CRIT", model.Location{Lat: -42.91, Lon: -71.36})
	critical.Priority = 1
	critical.Severity = model.SeverityCritical

	crew := testCrew("BR001")
	plan := p.Optimize([]model.DemandPoint{low, critical}, []model.Resource{crew}, "baseline")

	if len(plan.Assignments) != 1 || plan.Assignments[0].DemandID != "F-CRIT" {
		t.Fatalf("critical tier must be served first: %+v", plan.Assignments)
	}
}

func TestGreedy_TieBreakDeterministic(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())
	fire := testFire("F001", testBase)

	// Identical resources: the lexicographically smaller id must win.
	b := testCrew("BR-B")
	a := testCrew("BR-A")
	plan := p.Optimize([]model.DemandPoint{fire}, []model.Resource{b, a}, "baseline")
	if plan.Assignments[0].ResourceID != "BR-A" {
		t.Fatalf("expected lexicographic tie-break, got %s", plan.Assignments[0].ResourceID)
	}
}

func TestOptimize_Idempotent(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	demands := []model.DemandPoint{
		testFire("F001", model.Location{Lat: -42.85, Lon: -71.55}),
		testFire("F002", model.Location{Lat: -42.78, Lon: -71.62}),
		testFire("F003", model.Location{Lat: -43.05, Lon: -71.48}),
	}
	demands[1].Priority = 9
	demands[1].ClusterID = "north"
	resources := []model.Resource{testCrew("BR001"), testCrew("BR002"), testAircraft("AC001")}

	a := p.Optimize(demands, resources, "baseline")
	b := p.Optimize(demands, resources, "baseline")

	// Strip the per-call identity fields before comparing bytes.
	a.ID, b.ID = "", ""
	a.Timestamp = b.Timestamp
	a.SolveMillis, b.SolveMillis = 0, 0

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("plans differ:\n%s\n%s", ja, jb)
	}
}

func TestOptimize_Invariants(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	demands := []model.DemandPoint{
		testFire("F001", model.Location{Lat: -42.85, Lon: -71.55}),
		testFire("F002", model.Location{Lat: -42.78, Lon: -71.62}),
		{ID: "I001", Kind: model.DemandRoadDamage, Location: testBase, Priority: 2},
	}
	resources := []model.Resource{testCrew("BR001"), testAircraft("AC001")}

	plan := p.Optimize(demands, resources, "baseline")

	if len(plan.Assignments)+len(plan.UnassignedDemand) != len(demands) {
		t.Fatalf("every demand must be assigned or reported unassigned")
	}
	seenD := map[string]bool{}
	seenR := map[string]bool{}
	var sum float64
	for _, a := range plan.Assignments {
		if seenD[a.DemandID] || seenR[a.ResourceID] {
			t.Fatalf("duplicate demand or resource in plan: %+v", a)
		}
		seenD[a.DemandID] = true
		seenR[a.ResourceID] = true
		sum += a.Contribution
	}
	if plan.Objective != sum {
		t.Fatalf("objective %v must equal contribution sum %v", plan.Objective, sum)
	}
	for i, a := range plan.Assignments {
		if a.PriorityRank != i+1 {
			t.Fatalf("ranks must be 1-based and ordered")
		}
	}
}

func TestOptimize_Monotonicity(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	demands := []model.DemandPoint{
		testFire("F001", model.Location{Lat: -42.85, Lon: -71.55}),
		testFire("F002", model.Location{Lat: -42.78, Lon: -71.62}),
	}
	resources := []model.Resource{testCrew("BR001")}

	before := p.Optimize(demands, resources, "baseline")

	extra := testCrew("BR-EXTRA")
	extra.Location = demands[1].Location // zero travel to F002
	after := p.Optimize(demands, append(resources, extra), "baseline")

	if after.Objective < before.Objective {
		t.Fatalf("adding a feasible zero-travel resource must not reduce the objective: %v -> %v",
			before.Objective, after.Objective)
	}
}

func TestOptimize_InputStatuses(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	empty := p.Optimize(nil, []model.Resource{testCrew("BR001")}, "baseline")
	if empty.Status != model.StatusNoDemand {
		t.Fatalf("expected no_demand, got %s", empty.Status)
	}

	offline := testCrew("BR001")
	offline.Available = false
	plan := p.Optimize([]model.DemandPoint{testFire("F001", testBase)}, []model.Resource{offline}, "baseline")
	if plan.Status != model.StatusNoResources {
		t.Fatalf("expected no_resources, got %s", plan.Status)
	}
	if plan.UnassignedDemand[0].Reason != model.ReasonNoResourcesAvailable {
		t.Fatalf("expected no_resources_available reason")
	}
}

func TestOptimize_DoesNotMutateInputs(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig())

	crew := testCrew("BR001")
	resources := []model.Resource{crew}
	p.Optimize([]model.DemandPoint{testFire("F001", model.Location{Lat: -42.85, Lon: -71.55})}, resources, "baseline")

	if resources[0].HoursLeft != crew.HoursLeft || resources[0].ShiftLeft != crew.ShiftLeft {
		t.Fatalf("caller-owned resources must not be mutated")
	}
}

func bindingSet(plan *model.AllocationPlan) map[string]bool {
	set := make(map[string]bool)
	for _, c := range plan.BindingConstraints {
		if c.Binding {
			set[c.Name] = true
		}
	}
	return set
}
