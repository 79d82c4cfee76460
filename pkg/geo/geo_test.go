package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	d := Distance(40.7128, -74.0060, 40.7128, -74.0060)
	if d > 1e-6 {
		t.Fatalf("expected zero distance, got %f", d)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// New York City to Los Angeles, roughly 3936 km.
	d := Distance(40.7128, -74.0060, 34.0522, -118.2437)
	if math.Abs(d-3936) > 50 {
		t.Fatalf("unexpected distance: %f", d)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Distance(51.5074, -0.1278, 48.8566, 2.3522)
	b := Distance(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("expected symmetric distances, got %f and %f", a, b)
	}
}
