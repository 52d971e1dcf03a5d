// utils/gps.go - Haversine distance check for location-gated subpuzzles
package utils

import "math"

const earthRadiusKm = 6371.0

// IsWithinRange reports whether the user's position is within
// allowedRadiusMeters of the target position.
func IsWithinRange(targetLat, targetLon, userLat, userLon, allowedRadiusMeters float64) bool {
	return DistanceMeters(targetLat, targetLon, userLat, userLon) <= allowedRadiusMeters
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * 1000
}

func degreesToRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180.0)
}
