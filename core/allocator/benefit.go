package allocator

import (
	"math"

	"github.com/matiasvr/fireline/core/model"
)

// Per-hour output factors by resource kind. Aircraft fly two drops per hour,
// crews convert headcount into containment at half a unit per head-hour, and
// trucks cycle full loads on a fixed round trip.
const (
	aircraftDropsPerHour = 2.0
	crewRatePerHeadHour  = 0.5
	truckTripHours       = 0.5
)

// BenefitModel scores the net value of assigning a resource to a demand.
type BenefitModel struct {
	cfg Config
}

// NewBenefitModel returns a model bound to the given configuration.
func NewBenefitModel(cfg Config) BenefitModel {
	return BenefitModel{cfg: cfg}
}

// EffectiveCapacity estimates how much of the demand's required effort the
// resource can deliver in its remaining time after subtracting travel.
func (b BenefitModel) EffectiveCapacity(r model.Resource, d model.DemandPoint) float64 {
	travel := r.TravelHoursTo(d.Location)
	charged := travel
	if r.ReturnsToRefuel() {
		charged = travel * 2
	}
	if charged > r.HoursLeft || travel > r.ShiftLeft {
		return 0
	}

	ops := math.Min(r.HoursLeft, r.ShiftLeft) - travel
	if ops <= 0 {
		return 0
	}

	switch r.Kind {
	case model.KindAircraft:
		return ops * aircraftDropsPerHour * r.Capacity
	case model.KindWaterTruck:
		return r.Capacity * (ops / truckTripHours)
	default:
		// Crews deliver a containment rate scaled by headcount.
		return ops * r.Capacity * crewRatePerHeadHour
	}
}

// Benefit computes the urgency-weighted benefit of the pairing minus the
// travel penalty. The type-fit multiplier applies before the penalty.
func (b BenefitModel) Benefit(r model.Resource, d model.DemandPoint) float64 {
	travel := r.TravelHoursTo(d.Location)
	containment := b.containmentPotential(r, d)
	fit := b.typeFit(r, d)
	return d.Priority*d.UrgencyOrDefault()*containment*fit - travel*b.cfg.TravelPenaltyWeight
}

// Contribution is the value an accepted assignment adds to the objective:
// the benefit plus the per-demand critical bonus when applicable. The bonus is
// resource-independent and applied once to whichever resource is chosen.
func (b BenefitModel) Contribution(r model.Resource, d model.DemandPoint) float64 {
	v := b.Benefit(r, d)
	if d.Severity == model.SeverityCritical {
		v += b.cfg.CriticalBonus
	}
	return v
}

func (b BenefitModel) containmentPotential(r model.Resource, d model.DemandPoint) float64 {
	if d.Workload <= 0 {
		return 1
	}
	return math.Min(1, b.EffectiveCapacity(r, d)/d.Workload)
}

func (b BenefitModel) typeFit(r model.Resource, d model.DemandPoint) float64 {
	if d.Intensity > 0.8 && r.Kind == model.KindAircraft {
		return b.cfg.TypeFitStrong
	}
	if d.Intensity > 0.7 && r.Kind == model.KindWaterTruck {
		return b.cfg.TypeFitWeak
	}
	return 1
}
