package core

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/signalsfoundry/globe-tracker/model"
)

// sphereTolerance is the relative distance from the sphere surface still
// accepted by ToGeo.
const sphereTolerance = 1e-6

// poleTolerance is the relative equatorial-plane distance under which a
// point is treated as lying on the polar axis.
const poleTolerance = 1e-12

// Projector maps geographic coordinates onto a sphere of fixed radius.
type Projector struct {
	Radius float64
}

// NewProjector returns a Projector for the given globe radius.
func NewProjector(radius float64) (Projector, error) {
	if err := checkRadius(radius); err != nil {
		return Projector{}, err
	}
	return Projector{Radius: radius}, nil
}

// ToCartesian projects coord onto the projector's sphere.
func (p Projector) ToCartesian(coord model.GeoCoordinate) (Vec3, error) {
	return ToCartesian(coord, p.Radius)
}

// ToGeo inverts ToCartesian for a point on the projector's sphere.
func (p Projector) ToGeo(point Vec3) (model.GeoCoordinate, error) {
	return ToGeo(point, p.Radius)
}

// UnitCartesian projects coord onto the unit sphere.
func UnitCartesian(coord model.GeoCoordinate) (Vec3, error) {
	return ToCartesian(coord, 1)
}

// ToCartesian converts a geographic coordinate to a point on a sphere of the
// given radius. Longitude is offset by 180° so that the prime meridian lines
// up with the centre of an equirectangular globe texture:
//
//	phi   = (90 - lat)  polar angle from +Y
//	theta = (lon + 180) azimuth
//	x = -r sin(phi) cos(theta), y = r cos(phi), z = r sin(phi) sin(theta)
func ToCartesian(coord model.GeoCoordinate, radius float64) (Vec3, error) {
	if err := coord.Validate(); err != nil {
		return Vec3{}, err
	}
	if err := checkRadius(radius); err != nil {
		return Vec3{}, err
	}

	sinPhi, cosPhi := sincosDeg(90 - coord.Latitude)
	sinTheta, cosTheta := sincosDeg(coord.Longitude + 180)

	return Vec3{
		X: -radius * sinPhi * cosTheta,
		Y: radius * cosPhi,
		Z: radius * sinPhi * sinTheta,
	}, nil
}

// ToGeo converts a point on a sphere of the given radius back into a
// geographic coordinate. Points further than a relative 1e-6 from the sphere
// are rejected with ErrOffSphere. Longitude is 0 at the poles.
func ToGeo(point Vec3, radius float64) (model.GeoCoordinate, error) {
	if err := checkRadius(radius); err != nil {
		return model.GeoCoordinate{}, err
	}
	norm := point.Norm()
	if norm == 0 {
		return model.GeoCoordinate{}, fmt.Errorf("%w: zero vector has no direction", model.ErrDegenerateTarget)
	}
	if math.Abs(norm-radius) > sphereTolerance*radius {
		return model.GeoCoordinate{}, fmt.Errorf("%w: |p|=%v, radius=%v", model.ErrOffSphere, norm, radius)
	}
	return direction(point, norm), nil
}

// Geodetic returns the coordinate directly beneath point and its altitude
// above a sphere of the given radius. Points inside the sphere have a
// negative altitude.
func Geodetic(point Vec3, radius float64) (model.GeoCoordinate, float64, error) {
	if err := checkRadius(radius); err != nil {
		return model.GeoCoordinate{}, 0, err
	}
	norm := point.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return model.GeoCoordinate{}, 0, fmt.Errorf("%w: point %v has no direction", model.ErrDegenerateTarget, point)
	}
	return direction(point, norm), norm - radius, nil
}

// direction reads the latitude and longitude of a non-zero point. The scene
// frame is an axis permutation of the S2 frame: S2 (x, y, z) = (x, -z, y).
func direction(point Vec3, norm float64) model.GeoCoordinate {
	ll := s2.LatLngFromPoint(s2.PointFromCoords(point.X, -point.Z, point.Y))

	coord := model.GeoCoordinate{
		Latitude:  ll.Lat.Degrees(),
		Longitude: ll.Lng.Degrees(),
	}
	if math.Hypot(point.X, point.Z) <= poleTolerance*norm {
		coord.Longitude = 0
	}
	return coord
}

// sincosDeg returns the sine and cosine of an angle in degrees, exact at
// multiples of 90° so that poles and cardinal meridians land on the axes.
func sincosDeg(deg float64) (sin, cos float64) {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	switch r {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(r * math.Pi / 180)
}

func checkRadius(radius float64) error {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return fmt.Errorf("%w: %v", model.ErrInvalidRadius, radius)
	}
	return nil
}
