package model

import "fmt"

// ResourceKind identifies the closed set of mobile asset types.
type ResourceKind string

const (
	KindAircraft   ResourceKind = "aircraft"
	KindGroundCrew ResourceKind = "ground_crew"
	KindWaterTruck ResourceKind = "water_truck"
	KindRepairCrew ResourceKind = "repair_crew"
)

// Capability names a service a resource can deliver.
type Capability string

const (
	CapAirSuppression    Capability = "air_suppression"
	CapGroundSuppression Capability = "ground_suppression"
	CapWaterSupply       Capability = "water_supply"
	CapRoadRepair        Capability = "road_repair"
	CapSignage           Capability = "signage"
	CapGeneral           Capability = "general"
)

// Resource is a mobile response asset with finite time, range and capacity.
// Capacity units depend on the kind: liters for aircraft and trucks,
// headcount-scaled containment rate for crews.
type Resource struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Kind      ResourceKind `json:"kind"`
	Location  Location     `json:"location"`
	Base      Location     `json:"base"`
	Capacity  float64      `json:"capacity"`
	SpeedKMH  float64      `json:"speed_kmh"`
	RangeKM   float64      `json:"range_km"`
	HoursLeft float64      `json:"hours_remaining"`       // operational-time budget
	ShiftLeft float64      `json:"shift_hours_remaining"` // crew shift budget
	Available bool         `json:"available"`

	// Capabilities overrides the defaults derived from Kind when non-empty.
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// DefaultCapabilities maps a resource kind to its built-in capability set.
func DefaultCapabilities(kind ResourceKind) []Capability {
	switch kind {
	case KindAircraft:
		return []Capability{CapAirSuppression}
	case KindGroundCrew:
		return []Capability{CapGroundSuppression}
	case KindWaterTruck:
		return []Capability{CapWaterSupply}
	case KindRepairCrew:
		return []Capability{CapRoadRepair, CapSignage}
	default:
		return []Capability{CapGeneral}
	}
}

// EffectiveCapabilities returns the explicit capability set if present, else
// the defaults for the resource kind.
func (r Resource) EffectiveCapabilities() []Capability {
	if len(r.Capabilities) > 0 {
		return r.Capabilities
	}
	return DefaultCapabilities(r.Kind)
}

// HasCapability reports whether the resource declares the given capability.
func (r Resource) HasCapability(c Capability) bool {
	for _, have := range r.EffectiveCapabilities() {
		if have == c || have == CapGeneral {
			return true
		}
	}
	return false
}

// TravelHoursTo returns the one-way travel time to the target in hours.
func (r Resource) TravelHoursTo(target Location) float64 {
	return r.Location.TravelHours(target, r.SpeedKMH)
}

// CanReach reports whether the resource can travel to the target and still
// return to its base within its operational range.
func (r Resource) CanReach(target Location) bool {
	out := r.Location.DistanceTo(target)
	back := target.DistanceTo(r.Base)
	return out+back <= r.RangeKM
}

// ReturnsToRefuel reports whether the asset must fly back to base between
// operations, doubling the travel charged against its ops budget.
func (r Resource) ReturnsToRefuel() bool {
	return r.Kind == KindAircraft
}

// Validate checks the resource configuration is sound.
func (r Resource) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("resource id is required")
	}
	if r.SpeedKMH <= 0 {
		return fmt.Errorf("resource %s: speed must be positive", r.ID)
	}
	if r.RangeKM < 0 || r.Capacity < 0 {
		return fmt.Errorf("resource %s: range and capacity must not be negative", r.ID)
	}
	return nil
}
