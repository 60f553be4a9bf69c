package scoring

import (
	"math"
	"testing"

	"github.com/matiasvr/fireline/core/model"
)

func esquel() model.Location   { return model.Location{Lat: -42.9167, Lon: -71.3167, Name: "Esquel"} }
func trevelin() model.Location { return model.Location{Lat: -43.0833, Lon: -71.4667, Name: "Trevelin"} }

func town(id string, loc model.Location, value float64) model.ProtectedAsset {
	return model.ProtectedAsset{ID: id, Name: loc.Name, Kind: model.AssetTown, Location: loc, Value: value}
}

func fireAt(loc model.Location, intensity float64) model.DemandPoint {
	return model.DemandPoint{
		ID:        "F001",
		Location:  loc,
		Kind:      model.DemandWildfire,
		Severity:  model.SeverityHigh,
		Intensity: intensity,
	}
}

func TestScore_ProximityScaling(t *testing.T) {
	scorer := NewThreatScorer([]model.ProtectedAsset{town("A1", esquel(), 100)})

	near := fireAt(model.Location{Lat: -42.92, Lon: -71.35}, 1.0)
	far := fireAt(model.Location{Lat: -43.2, Lon: -71.6}, 1.0)

	sNear := scorer.Score(near, Wind{})
	sFar := scorer.Score(far, Wind{})
	if sNear <= sFar {
		t.Fatalf("closer demand must threaten more: near=%v far=%v", sNear, sFar)
	}
	if sNear <= 0 || sNear > 100 {
		t.Fatalf("score out of range: %v", sNear)
	}
}

func TestScore_OutsideRadiusIgnored(t *testing.T) {
	// Comodoro Rivadavia is hundreds of km from Esquel.
	remote := town("A1", model.Location{Lat: -45.86, Lon: -67.48}, 1000)
	scorer := NewThreatScorer([]model.ProtectedAsset{remote})

	if got := scorer.Score(fireAt(esquel(), 1.0), Wind{}); got != 0 {
		t.Fatalf("asset outside 50km contributed: %v", got)
	}
}

func TestScore_IntensityMultiplies(t *testing.T) {
	scorer := NewThreatScorer([]model.ProtectedAsset{town("A1", esquel(), 100)})
	loc := model.Location{Lat: -42.95, Lon: -71.35}

	low := scorer.Score(fireAt(loc, 0.4), Wind{})
	high := scorer.Score(fireAt(loc, 0.8), Wind{})
	if math.Abs(high-2*low) > 1e-9 {
		t.Fatalf("threat must scale linearly with intensity: low=%v high=%v", low, high)
	}
}

func TestScore_WindPushesThreatTowardAsset(t *testing.T) {
	asset := town("A1", esquel(), 100)
	scorer := NewThreatScorer([]model.ProtectedAsset{asset})
	d := fireAt(model.Location{Lat: -42.95, Lon: -71.45}, 1.0)

	calm := scorer.Score(d, Wind{})

	// Bearing from the demand toward the asset, in the atan2(dLat,dLon)
	// convention the factor uses.
	bearing := math.Atan2(asset.Location.Lat-d.Location.Lat, asset.Location.Lon-d.Location.Lon)
	aligned := scorer.Score(d, Wind{SpeedKMH: 50, DirectionD: bearing * 180 / math.Pi})
	opposed := scorer.Score(d, Wind{SpeedKMH: 50, DirectionD: bearing*180/math.Pi + 180})

	if aligned <= calm {
		t.Fatalf("aligned wind must raise threat: calm=%v aligned=%v", calm, aligned)
	}
	if opposed >= calm {
		t.Fatalf("opposed wind must lower threat: calm=%v opposed=%v", calm, opposed)
	}
	if math.Abs(aligned-1.5*calm) > 1e-6 {
		t.Fatalf("50 km/h aligned wind factor should be 1.5: calm=%v aligned=%v", calm, aligned)
	}
}

func TestApply_OnlyUnsetPriorities(t *testing.T) {
	scorer := NewThreatScorer([]model.ProtectedAsset{town("A1", esquel(), 100)})
	demands := []model.DemandPoint{
		fireAt(model.Location{Lat: -42.95, Lon: -71.35}, 1.0),
		fireAt(model.Location{Lat: -42.96, Lon: -71.36}, 1.0),
	}
	demands[1].ID = "F002"
	demands[1].Priority = 42

	out := scorer.Apply(demands, Wind{})
	if out[0].Priority == 0 {
		t.Fatalf("unset priority must be scored")
	}
	if out[1].Priority != 42 {
		t.Fatalf("caller-supplied priority must win, got %v", out[1].Priority)
	}
	if demands[0].Priority != 0 {
		t.Fatalf("input slice mutated")
	}
}

func TestApplyScenario_GroundsResources(t *testing.T) {
	scorer := NewThreatScorer([]model.ProtectedAsset{town("A1", esquel(), 100)})
	demands := []model.DemandPoint{fireAt(model.Location{Lat: -42.95, Lon: -71.35}, 1.0)}
	resources := []model.Resource{
		{ID: "AC001", Kind: model.KindAircraft, Available: true, HoursLeft: 6},
		{ID: "BR001", Kind: model.KindGroundCrew, Available: true, HoursLeft: 8},
	}

	sc := Scenario{Name: "aircraft_down", Wind: Wind{SpeedKMH: 30, DirectionD: 270}, GroundedResources: []string{"AC001"}}
	outD, outR := ApplyScenario(sc, scorer, demands, resources)

	if outR[0].Available || outR[0].HoursLeft != 0 {
		t.Fatalf("grounded resource still in service: %+v", outR[0])
	}
	if !outR[1].Available {
		t.Fatalf("untouched resource lost availability")
	}
	if resources[0].Available != true {
		t.Fatalf("input resources mutated")
	}
	if outD[0].Priority == 0 {
		t.Fatalf("scenario must rescore demand priorities")
	}
}
