package engine

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// coordinates given in degrees. It is symmetric and returns 0 for
// identical points. Coordinate ranges are not validated: out-of-range
// degrees yield a mathematically defined but meaningless result.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
