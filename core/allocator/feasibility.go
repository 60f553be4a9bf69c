package allocator

import "github.com/matiasvr/fireline/core/model"

// Feasibility decides whether a single resource can legally serve a single
// demand point under the hard constraints. Checks are pure: cluster usage is
// passed in by the caller because it is solve-local state.
type Feasibility struct {
	cfg Config
}

// NewFeasibility returns a checker bound to the given configuration.
func NewFeasibility(cfg Config) Feasibility {
	return Feasibility{cfg: cfg}
}

// Check returns the names of every constraint the pairing violates. An empty
// slice means the pairing is feasible. All failing checks are reported so the
// explanation layer can name every reason, not just the first.
func (f Feasibility) Check(r model.Resource, d model.DemandPoint, clusterOps int) []string {
	var failed []string

	if !f.typeCompatible(r, d) {
		failed = append(failed, model.ConstraintTypeCompat)
	}

	if !r.CanReach(d.Location) {
		failed = append(failed, model.ConstraintRange)
	}

	travel := r.TravelHoursTo(d.Location)
	charged := travel
	if r.ReturnsToRefuel() {
		// Out-and-back legs count against the ops budget.
		charged = travel * 2
	}
	if charged > r.HoursLeft {
		failed = append(failed, model.ConstraintOpsHours)
	}
	if travel > r.ShiftLeft {
		failed = append(failed, model.ConstraintCrewShift)
	}

	if d.ClusterID != "" && clusterOps >= f.cfg.MaxOpsPerCluster {
		failed = append(failed, model.ConstraintClusterOps)
	}

	return failed
}

// Feasible is a convenience wrapper returning the boolean verdict alongside
// the failed constraint names.
func (f Feasibility) Feasible(r model.Resource, d model.DemandPoint, clusterOps int) (bool, []string) {
	failed := f.Check(r, d, clusterOps)
	return len(failed) == 0, failed
}

func (f Feasibility) typeCompatible(r model.Resource, d model.DemandPoint) bool {
	required := d.RequiredCapabilities()
	if len(required) == 0 {
		return true
	}
	for _, c := range required {
		if r.HasCapability(c) {
			return true
		}
	}
	return false
}
