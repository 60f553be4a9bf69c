package model

import "math"

const earthRadiusKM = 6371

// Location is a point on the Earth surface with an optional display name.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// DistanceTo returns the haversine distance to other in kilometers.
func (l Location) DistanceTo(other Location) float64 {
	lat1 := l.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dlat := (other.Lat - l.Lat) * math.Pi / 180
	dlon := (other.Lon - l.Lon) * math.Pi / 180
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKM * 2 * math.Asin(math.Sqrt(a))
}

// TravelHours returns the time in hours to reach other at the given speed.
// A non-positive speed yields +Inf so callers treat the leg as unreachable.
func (l Location) TravelHours(other Location, speedKMH float64) float64 {
	if speedKMH <= 0 {
		return math.Inf(1)
	}
	return l.DistanceTo(other) / speedKMH
}
