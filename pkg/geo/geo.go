package geo

import "math"

const (
	EarthRadiusMeters = 6371000.0
	EarthRadiusMiles  = 3959.0
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite numbers.
func (p LatLng) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// DistanceMeters returns the haversine great-circle distance between a and b in meters.
// NaN input yields NaN.
func DistanceMeters(a, b LatLng) float64 {
	return EarthRadiusMeters * centralAngle(a, b)
}

// DistanceMiles is DistanceMeters with the Earth radius expressed in miles.
func DistanceMiles(a, b LatLng) float64 {
	return EarthRadiusMiles * centralAngle(a, b)
}

// MetersToLatDegrees converts a north-south distance to degrees of latitude.
func MetersToLatDegrees(meters float64) float64 {
	return meters / EarthRadiusMeters * 180 / math.Pi
}

func centralAngle(a, b LatLng) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
