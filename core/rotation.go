package core

import "math"

const twoPi = 2 * math.Pi

// DefaultAxialTiltDeg is the fixed tilt of the globe's spin axis.
const DefaultAxialTiltDeg = 23.5

// RotationState is the spin of the globe mesh. Angle is kept in [0, 2π).
type RotationState struct {
	Angle  float64 `json:"angle_rad"`
	Locked bool    `json:"locked"`
}

// Advance spins the globe by angularVelocity (rad/s) over deltaSeconds.
// A locked state, or a non-finite step, is returned unchanged.
func Advance(state RotationState, deltaSeconds, angularVelocity float64) RotationState {
	if state.Locked {
		return state
	}
	step := angularVelocity * deltaSeconds
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return state
	}
	state.Angle = NormalizeAngle(state.Angle + step)
	return state
}

// SetLocked returns state with the lock flag set; the angle is untouched.
func SetLocked(state RotationState, locked bool) RotationState {
	state.Locked = locked
	return state
}

// FaceLongitude turns the globe so that the given longitude (degrees) is at
// the spin angle the renderer expects for a freshly located device. The lock
// flag is preserved.
func FaceLongitude(state RotationState, longitude float64) RotationState {
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) {
		return state
	}
	state.Angle = NormalizeAngle(longitude * math.Pi / 180)
	return state
}

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, twoPi)
	if a < 0 {
		a += twoPi
	}
	// a+2π can round up to exactly 2π for tiny negative inputs.
	if a >= twoPi {
		a = 0
	}
	return a
}

// Orient places a point of the globe's local frame into the world frame:
// spin by angle about +Y, then tilt by axialTiltDeg about +X. Markers
// oriented this way stay glued to the rotating globe mesh.
func Orient(point Vec3, angle, axialTiltDeg float64) Vec3 {
	sinA, cosA := math.Sincos(angle)
	spun := Vec3{
		X: point.X*cosA + point.Z*sinA,
		Y: point.Y,
		Z: -point.X*sinA + point.Z*cosA,
	}

	sinT, cosT := math.Sincos(axialTiltDeg * math.Pi / 180)
	return Vec3{
		X: spun.X,
		Y: spun.Y*cosT - spun.Z*sinT,
		Z: spun.Y*sinT + spun.Z*cosT,
	}
}
