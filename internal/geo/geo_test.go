package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistanceSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		lat1, lon1 := r.Float64()*160-80, r.Float64()*360-180
		lat2, lon2 := r.Float64()*160-80, r.Float64()*360-180
		a := Distance(lat1, lon1, lat2, lon2)
		b := Distance(lat2, lon2, lat1, lon1)
		if math.Abs(a-b) > 1e-9 {
			t.Fatalf("distance not symmetric: %f vs %f", a, b)
		}
	}
}

func TestDistanceOneDegree(t *testing.T) {
	d := Distance(0, 0, 1, 0)
	if math.Abs(d-60.04) > 0.05 {
		t.Fatalf("one degree of latitude = %f NM, want ~60.04", d)
	}
	if Distance(10, 20, 10, 20) != 0 {
		t.Fatalf("distance to self should be zero")
	}
}

func TestBearingCardinal(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 0, 0, -1, 0, 180},
		{"west", 0, 0, 0, -1, 270},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Bearing(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("bearing = %f, want %f", got, tc.want)
			}
			if got < 0 || got >= 360 {
				t.Fatalf("bearing out of range: %f", got)
			}
		})
	}
}

func TestNextPositionDoesNotOvershoot(t *testing.T) {
	lat, lon := NextPosition(0, 0, 0, 0.001, 3600)
	if lat != 0 || lon != 0.001 {
		t.Fatalf("expected snap to destination, got %f,%f", lat, lon)
	}
}

func TestNextPositionStep(t *testing.T) {
	lat, lon := NextPosition(0, 0, 0, 10, 360)
	moved := Distance(0, 0, lat, lon)
	if math.Abs(moved-StepDistance(360)) > 1e-6 {
		t.Fatalf("moved %f NM, want %f", moved, StepDistance(360))
	}
	if math.Abs(lat) > 1e-9 || lon <= 0 {
		t.Fatalf("expected eastward movement along the equator, got %f,%f", lat, lon)
	}
}

func TestNextPositionZeroSpeed(t *testing.T) {
	lat, lon := NextPosition(1, 2, 3, 4, 0)
	if lat != 1 || lon != 2 {
		t.Fatalf("zero speed should not move, got %f,%f", lat, lon)
	}
}

func TestRepeatedStepsArrive(t *testing.T) {
	lat, lon := 10.0, 10.0
	destLat, destLon := 10.3, 10.4
	want := Bearing(lat, lon, destLat, destLon)
	for i := 0; i < 100000; i++ {
		if Distance(lat, lon, destLat, destLon) == 0 {
			return
		}
		b := Bearing(lat, lon, destLat, destLon)
		// great-circle bearings drift slowly over short legs
		if math.Abs(b-want) > 1 {
			t.Fatalf("bearing drifted to %f from %f", b, want)
		}
		lat, lon = NextPosition(lat, lon, destLat, destLon, 600)
	}
	t.Fatalf("did not arrive at destination")
}

func TestDestinationWrapsLongitude(t *testing.T) {
	_, lon := Destination(0, 179.99, 90, 60)
	if lon > 180 || lon < -180 {
		t.Fatalf("longitude not normalized: %f", lon)
	}
	if lon > 0 {
		t.Fatalf("expected wrap past the antimeridian, got %f", lon)
	}
}
