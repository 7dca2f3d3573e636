package core

import "math"

// Vec3 is a point or direction in scene space. The globe is centred on the
// origin with +Y through the north pole.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector along v and false when v is the zero
// vector (or not finite).
func (v Vec3) Normalize() (Vec3, bool) {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// HasLineOfSight checks whether the straight segment between p1 and p2
// clears a sphere of the given radius centred on the origin.
func HasLineOfSight(p1, p2 Vec3, radius float64) bool {
	r2 := radius * radius
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		// Same point: visible only if it is outside the sphere.
		return p1.Dot(p1) > r2
	}

	// t* minimises |p1 + t v|^2 over t ∈ ℝ, clamped to the segment.
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := p1.Add(v.Scale(t))
	return closest.Dot(closest) > r2
}

// hasClearView is HasLineOfSight for an observer standing on the surface.
// The observer's own point touches the sphere, so it is lifted by a small
// fraction of the radius before testing.
func hasClearView(observer, target Vec3, radius float64) bool {
	lifted := observer.Scale(1 + 1e-9)
	return HasLineOfSight(lifted, target, radius)
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	zenith, ok := observer.Normalize()
	if !ok {
		return 90
	}

	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	return 90.0 - gammaDeg
}

// Visible reports whether target is above the observer's horizon and not
// hidden behind a globe of the given radius.
func Visible(observer, target Vec3, radius float64) bool {
	return ElevationDegrees(observer, target) > 0 && hasClearView(observer, target, radius)
}
