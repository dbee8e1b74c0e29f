// Package geo holds the great-circle helpers the engine moves units with.
// Distances are nautical miles and speeds are knots.
package geo

import "math"

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// TickSeconds is the simulated duration of one tick.
const TickSeconds = 1.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Bearing returns the initial great-circle bearing from point 1 to point 2 in
// degrees, in [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dLon := toRad(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	deg := math.Mod(toDeg(math.Atan2(y, x))+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Distance calculates the haversine distance between two lat/lon points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusNM * c
}

// Destination returns the point reached from (lat, lon) after travelling
// distance along the given bearing.
func Destination(lat, lon, bearing, distance float64) (float64, float64) {
	phi1, lambda1 := toRad(lat), toRad(lon)
	theta := toRad(bearing)
	delta := distance / EarthRadiusNM
	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(phi1), math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))
	return toDeg(phi2), normalizeLon(toDeg(lambda2))
}

// StepDistance is the distance covered in one tick at speed knots.
func StepDistance(speed float64) float64 {
	return speed * TickSeconds / 3600
}

// NextPosition returns the position reached after one tick travelling from
// (lat, lon) toward (destLat, destLon) at speed knots. It never overshoots the
// destination.
func NextPosition(lat, lon, destLat, destLon, speed float64) (float64, float64) {
	step := StepDistance(speed)
	if step <= 0 {
		return lat, lon
	}
	if Distance(lat, lon, destLat, destLon) <= step {
		return destLat, destLon
	}
	return Destination(lat, lon, Bearing(lat, lon, destLat, destLon), step)
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}
