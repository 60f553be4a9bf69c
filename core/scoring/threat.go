// Package scoring derives demand priorities from proximity to protected
// assets and applies what-if scenarios (wind shifts, grounded resources) to
// input snapshots without mutating them.
package scoring

import (
	"math"

	"github.com/matiasvr/fireline/core/model"
)

// threatRadiusKM bounds how far an asset can be from a demand point and still
// contribute to its threat.
const threatRadiusKM = 50.0

// Wind is the scenario wind vector.
type Wind struct {
	SpeedKMH   float64 `json:"speed_kmh" yaml:"speed_kmh"`
	DirectionD float64 `json:"direction_degrees" yaml:"direction_degrees"`
}

// ThreatScorer computes threat scores for demand points against a fixed set
// of protected assets.
type ThreatScorer struct {
	assets []model.ProtectedAsset
}

// NewThreatScorer copies the asset list so later caller mutations cannot
// change scoring results.
func NewThreatScorer(assets []model.ProtectedAsset) *ThreatScorer {
	cp := make([]model.ProtectedAsset, len(assets))
	copy(cp, assets)
	return &ThreatScorer{assets: cp}
}

// Score sums, over every asset within the threat radius, the asset value
// scaled by proximity, the wind factor and the demand intensity. Demands
// pushed toward an asset by the wind score higher than demands downwind of
// it.
func (s *ThreatScorer) Score(d model.DemandPoint, wind Wind) float64 {
	var threat float64
	for _, asset := range s.assets {
		dist := d.Location.DistanceTo(asset.Location)
		if dist >= threatRadiusKM {
			continue
		}
		base := asset.Value * (1 - dist/threatRadiusKM)
		threat += base * windFactor(d.Location, asset.Location, wind) * d.Intensity
	}
	return threat
}

// Apply returns a copy of the demand slice with Priority set to the threat
// score for every demand whose caller left it unset.
func (s *ThreatScorer) Apply(demands []model.DemandPoint, wind Wind) []model.DemandPoint {
	out := make([]model.DemandPoint, len(demands))
	copy(out, demands)
	for i := range out {
		if out[i].Priority == 0 {
			out[i].Priority = s.Score(out[i], wind)
		}
	}
	return out
}

// windFactor is 1.0 in calm air and ranges from 0.5 to 1.5 at 50 km/h
// depending on how aligned the wind is with the demand-to-asset bearing.
func windFactor(from, to model.Location, wind Wind) float64 {
	if wind.SpeedKMH <= 0 {
		return 1.0
	}
	bearing := math.Atan2(to.Lat-from.Lat, to.Lon-from.Lon)
	angleDiff := math.Abs(bearing - wind.DirectionD*math.Pi/180)
	return 1 + 0.5*math.Cos(angleDiff)*(wind.SpeedKMH/50)
}
