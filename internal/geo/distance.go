// Package geo holds the shared distance math used by every discovery service.
// All callers must go through DistanceM so sort orders stay consistent.
package geo

import "math"

// EarthRadiusM is the mean spherical-earth radius in meters.
const EarthRadiusM = 6371000.0

// DistanceM returns the great-circle distance in meters between two
// coordinates using the haversine formula.
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dPhi := (lat2 - lat1) * math.Pi / 180.0
	dLambda := (lon2 - lon1) * math.Pi / 180.0
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// DistanceKm is DistanceM in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceM(lat1, lon1, lat2, lon2) / 1000.0
}
