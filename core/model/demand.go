package model

import "fmt"

// DemandKind identifies the category of a demand point. The kind decides
// which resource capabilities qualify to serve it.
type DemandKind string

const (
	DemandWildfire   DemandKind = "wildfire"
	DemandRoadDamage DemandKind = "road_damage"
	DemandSignage    DemandKind = "signage"
	DemandGeneral    DemandKind = "general"
)

// Severity is an enumerated severity tier for a demand point.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns a human-readable representation of the severity tier.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// DemandPoint is a location requiring response, together with the scoring
// inputs supplied by the external scoring collaborator. Priority and Urgency
// are treated as opaque inputs by the allocation engine.
type DemandPoint struct {
	ID        string     `json:"id"`
	Location  Location   `json:"location"`
	Kind      DemandKind `json:"kind"`
	Severity  Severity   `json:"severity"`
	Intensity float64    `json:"intensity"` // 0..1 scale
	Priority  float64    `json:"priority"`  // risk/threat score, >= 0
	Urgency   float64    `json:"urgency"`   // deadline-derived multiplier, defaults to 1
	Workload  float64    `json:"workload"`  // effort units required for full containment
	ClusterID string     `json:"cluster_id,omitempty"`
}

// RequiredCapabilities returns the capability set a resource must intersect to
// serve this demand. An empty set means any resource qualifies.
func (d DemandPoint) RequiredCapabilities() []Capability {
	switch d.Kind {
	case DemandWildfire:
		return []Capability{CapAirSuppression, CapGroundSuppression, CapWaterSupply}
	case DemandRoadDamage:
		return []Capability{CapRoadRepair}
	case DemandSignage:
		return []Capability{CapSignage}
	default:
		return nil
	}
}

// UrgencyOrDefault returns the urgency multiplier, treating the zero value as
// the neutral multiplier 1.
func (d DemandPoint) UrgencyOrDefault() float64 {
	if d.Urgency <= 0 {
		return 1
	}
	return d.Urgency
}

// Validate checks that the demand point is structurally sound.
func (d DemandPoint) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("demand id is required")
	}
	if d.Intensity < 0 || d.Intensity > 1 {
		return fmt.Errorf("demand %s: intensity must be within [0,1]", d.ID)
	}
	if d.Priority < 0 {
		return fmt.Errorf("demand %s: priority must not be negative", d.ID)
	}
	return nil
}

// EffectiveCluster returns the concurrency-cap grouping for the demand. A
// demand without an explicit cluster forms its own singleton cluster.
func (d DemandPoint) EffectiveCluster() string {
	if d.ClusterID != "" {
		return d.ClusterID
	}
	return d.ID
}
