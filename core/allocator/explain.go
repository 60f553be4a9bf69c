package allocator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matiasvr/fireline/core/model"
)

const maxAlternatives = 3

// Explainer enriches a computed plan with natural-language rationale,
// alternative resource rankings and unassigned-reason details.
type Explainer struct {
	cfg     Config
	feas    Feasibility
	benefit BenefitModel
}

// NewExplainer builds an explainer for the configuration used by the solve.
func NewExplainer(cfg Config) *Explainer {
	return &Explainer{cfg: cfg, feas: NewFeasibility(cfg), benefit: NewBenefitModel(cfg)}
}

// Annotate fills in explanations and alternatives on every assignment and a
// human-readable detail on every unassigned demand. It performs no new
// allocation decisions.
func (e *Explainer) Annotate(plan *model.AllocationPlan, demands []model.DemandPoint, resources []model.Resource) {
	demandByID := make(map[string]model.DemandPoint, len(demands))
	for _, d := range demands {
		demandByID[d.ID] = d
	}
	resourceByID := make(map[string]model.Resource, len(resources))
	for _, r := range resources {
		resourceByID[r.ID] = r
	}

	for i := range plan.Assignments {
		a := &plan.Assignments[i]
		d, ok := demandByID[a.DemandID]
		if !ok {
			continue
		}
		chosen := resourceByID[a.ResourceID]
		a.Explanation = e.describe(d, chosen, a.TravelTimeHours)
		a.Alternatives = e.alternatives(d, chosen, a.TravelTimeHours, resources)
	}

	for i := range plan.UnassignedDemand {
		u := &plan.UnassignedDemand[i]
		d, ok := demandByID[u.DemandID]
		if !ok {
			continue
		}
		u.Detail = unassignedDetail(u.Reason, d)
	}
}

// describe builds the one-line rationale for an accepted assignment.
func (e *Explainer) describe(d model.DemandPoint, r model.Resource, travelHours float64) string {
	var parts []string

	switch d.Severity {
	case model.SeverityCritical:
		parts = append(parts, "CRITICAL demand - top priority")
	case model.SeverityHigh:
		parts = append(parts, "High priority due to severity")
	}

	urgency := d.UrgencyOrDefault()
	if urgency > 2.5 {
		parts = append(parts, "SLA breach imminent")
	} else if urgency > 2 {
		parts = append(parts, "SLA deadline approaching")
	}

	parts = append(parts, fmt.Sprintf("ETA: %d min", int(travelHours*60)))
	parts = append(parts, fmt.Sprintf("Selected resource: %s", resourceLabel(r)))

	if pct := e.benefit.containmentPotential(r, d); pct < 1 {
		parts = append(parts, fmt.Sprintf("Expected containment: %.0f%%", pct*100))
	}

	return strings.Join(parts, " | ")
}

// alternatives lists up to three feasible but not chosen resources, each
// annotated with its ETA and the reason it ranked lower, sorted by ETA.
func (e *Explainer) alternatives(d model.DemandPoint, chosen model.Resource, chosenTravel float64, resources []model.Resource) []model.Alternative {
	chosenBenefit := e.benefit.Benefit(chosen, d)

	var alts []model.Alternative
	for _, r := range resources {
		if r.ID == chosen.ID || !r.Available {
			continue
		}
		if ok, _ := e.feas.Feasible(r, d, 0); !ok {
			continue
		}
		travel := r.TravelHoursTo(d.Location)
		reason := "lower net benefit"
		if travel > chosenTravel {
			reason = "higher travel time"
		} else if e.benefit.Benefit(r, d) >= chosenBenefit {
			// Equal score lost the tie-break on travel time or id.
			reason = "higher travel time"
		}
		alts = append(alts, model.Alternative{
			ResourceID: r.ID,
			Name:       r.Name,
			ETAHours:   travel,
			Reason:     reason,
		})
	}

	sort.SliceStable(alts, func(a, b int) bool {
		if alts[a].ETAHours != alts[b].ETAHours {
			return alts[a].ETAHours < alts[b].ETAHours
		}
		return alts[a].ResourceID < alts[b].ResourceID
	})
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	return alts
}

// unassignedDetail renders the one-line reason for a demand left unserved.
func unassignedDetail(reason string, d model.DemandPoint) string {
	place := d.Location.Name
	if place == "" {
		place = d.ID
	}
	switch reason {
	case model.ReasonNoCompatibleResource:
		return fmt.Sprintf("No resource type can serve %s", place)
	case model.ReasonAllResourcesCommitted:
		return fmt.Sprintf("All compatible resources already committed; %s must wait", place)
	case model.ReasonNoResourcesAvailable:
		return fmt.Sprintf("No resources available for %s", place)
	default:
		return fmt.Sprintf("Range, time or cluster limits exclude every resource for %s", place)
	}
}

func resourceLabel(r model.Resource) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
