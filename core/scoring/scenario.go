package scoring

import "github.com/matiasvr/fireline/core/model"

// Scenario is a named what-if modification of the baseline inputs: a wind
// vector and a list of resources taken out of service.
type Scenario struct {
	Name              string   `json:"name" yaml:"name"`
	Wind              Wind     `json:"wind" yaml:"wind"`
	GroundedResources []string `json:"grounded_resources" yaml:"grounded_resources"`
}

// ApplyScenario returns modified copies of the demand and resource slices:
// grounded resources become unavailable with a zeroed time budget, and
// demand priorities are rescored against the scenario wind. The inputs are
// never touched.
func ApplyScenario(sc Scenario, scorer *ThreatScorer, demands []model.DemandPoint, resources []model.Resource) ([]model.DemandPoint, []model.Resource) {
	outD := make([]model.DemandPoint, len(demands))
	copy(outD, demands)
	for i := range outD {
		outD[i].Priority = scorer.Score(outD[i], sc.Wind)
	}

	grounded := make(map[string]bool, len(sc.GroundedResources))
	for _, id := range sc.GroundedResources {
		grounded[id] = true
	}
	outR := make([]model.Resource, len(resources))
	copy(outR, resources)
	for i := range outR {
		if grounded[outR[i].ID] {
			outR[i].Available = false
			outR[i].HoursLeft = 0
		}
	}
	return outD, outR
}
