package core

import (
	"math"
	"testing"
)

func TestHasLineOfSight_NoObstruction(t *testing.T) {
	// Two satellites high and on the same side of the globe, separated in Y.
	posA := Vec3{X: 8, Y: 0, Z: 0}
	posB := Vec3{X: 8, Y: 1, Z: 0}

	if !HasLineOfSight(posA, posB, 1) {
		t.Errorf("expected LoS between two high satellites on same side of the globe")
	}
}

func TestHasLineOfSight_Obstructed(t *testing.T) {
	// Two points on opposite sides: the chord passes through the globe.
	posA := Vec3{X: 7, Y: 0, Z: 0}
	posB := Vec3{X: -7, Y: 0, Z: 0}

	if HasLineOfSight(posA, posB, 1) {
		t.Errorf("expected LoS to be blocked by the globe")
	}
}

func TestHasLineOfSight_SamePoint(t *testing.T) {
	if !HasLineOfSight(Vec3{X: 2}, Vec3{X: 2}, 1) {
		t.Errorf("point outside the globe should see itself")
	}
	if HasLineOfSight(Vec3{X: 0.5}, Vec3{X: 0.5}, 1) {
		t.Errorf("point inside the globe should be blocked")
	}
}

func TestElevationDegrees(t *testing.T) {
	observer := Vec3{Y: 1}

	if got := ElevationDegrees(observer, Vec3{Y: 5}); math.Abs(got-90) > 1e-9 {
		t.Fatalf("overhead elevation = %v, want 90", got)
	}
	if got := ElevationDegrees(observer, Vec3{X: 3, Y: 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("horizon elevation = %v, want 0", got)
	}
	if got := ElevationDegrees(observer, Vec3{Y: -5}); math.Abs(got+90) > 1e-9 {
		t.Fatalf("nadir elevation = %v, want -90", got)
	}
}

func TestVisible(t *testing.T) {
	observer := Vec3{Y: 1}
	if !Visible(observer, Vec3{X: 1, Y: 4}, 1) {
		t.Fatalf("satellite above the horizon should be visible")
	}
	if Visible(observer, Vec3{X: 0.5, Y: -4}, 1) {
		t.Fatalf("satellite on the far side should not be visible")
	}
}

func TestNormalize(t *testing.T) {
	if _, ok := (Vec3{}).Normalize(); ok {
		t.Fatalf("zero vector should not normalize")
	}
	u, ok := Vec3{X: 3, Y: 4}.Normalize()
	if !ok {
		t.Fatalf("Normalize failed for non-zero vector")
	}
	if math.Abs(u.Norm()-1) > 1e-12 || math.Abs(u.X-0.6) > 1e-12 || math.Abs(u.Y-0.8) > 1e-12 {
		t.Fatalf("Normalize = %#v, want (0.6, 0.8, 0)", u)
	}
}
