package allocator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matiasvr/fireline/core/model"
)

// Change classifies how a demand's assignment moved between two plans.
type Change string

const (
	ChangeDropped    Change = "dropped"
	ChangeAdded      Change = "added"
	ChangeReassigned Change = "reassigned"
)

// AssignmentChange describes one demand whose assignment differs between the
// baseline and the alternative plan.
type AssignmentChange struct {
	DemandID string `json:"demand_id"`
	Change   Change `json:"change"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// Diff is the result of comparing two allocation plans.
type Diff struct {
	ObjectiveDelta        float64            `json:"objective_delta"`
	Changes               []AssignmentChange `json:"assignment_changes"`
	NewBindingConstraints []string           `json:"new_binding_constraints"`
	Summary               string             `json:"explanation"`
}

// Compare diffs two already-computed plans. It is a pure function: no
// feasibility or benefit computation is redone.
func Compare(a, b *model.AllocationPlan) Diff {
	diff := Diff{ObjectiveDelta: b.Objective - a.Objective}

	ids := make(map[string]struct{})
	for _, as := range a.Assignments {
		ids[as.DemandID] = struct{}{}
	}
	for _, bs := range b.Assignments {
		ids[bs.DemandID] = struct{}{}
	}
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	for _, id := range ordered {
		inA, okA := a.AssignmentFor(id)
		inB, okB := b.AssignmentFor(id)
		switch {
		case okA && !okB:
			diff.Changes = append(diff.Changes, AssignmentChange{DemandID: id, Change: ChangeDropped, From: inA.ResourceID})
		case okB && !okA:
			diff.Changes = append(diff.Changes, AssignmentChange{DemandID: id, Change: ChangeAdded, To: inB.ResourceID})
		case okA && okB && inA.ResourceID != inB.ResourceID:
			diff.Changes = append(diff.Changes, AssignmentChange{DemandID: id, Change: ChangeReassigned, From: inA.ResourceID, To: inB.ResourceID})
		}
	}

	aBinding := a.BindingNames()
	for name := range b.BindingNames() {
		if _, ok := aBinding[name]; !ok {
			diff.NewBindingConstraints = append(diff.NewBindingConstraints, name)
		}
	}
	sort.Strings(diff.NewBindingConstraints)

	diff.Summary = summarize(b.Scenario, diff)
	return diff
}

func summarize(scenario string, diff Diff) string {
	var sb strings.Builder

	if scenario == "" {
		scenario = "alternative"
	}
	if diff.ObjectiveDelta < 0 {
		fmt.Fprintf(&sb, "Scenario '%s' reduces coverage by %.1f points.", scenario, math.Abs(diff.ObjectiveDelta))
	} else {
		fmt.Fprintf(&sb, "Scenario '%s' improves coverage by %.1f points.", scenario, diff.ObjectiveDelta)
	}

	if len(diff.NewBindingConstraints) > 0 {
		fmt.Fprintf(&sb, " New constraints became binding: %s.", strings.Join(diff.NewBindingConstraints, ", "))
	}
	if len(diff.Changes) > 0 {
		fmt.Fprintf(&sb, " %d assignments changed.", len(diff.Changes))
	}
	return sb.String()
}
