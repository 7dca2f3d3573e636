package core

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/s2"

	"github.com/signalsfoundry/globe-tracker/model"
)

func TestToCartesianMagnitudeEqualsRadius(t *testing.T) {
	for _, radius := range []float64{1, 6.371, 100} {
		for lat := -90.0; lat <= 90; lat += 7.5 {
			for lon := -180.0; lon <= 180; lon += 11.25 {
				p, err := ToCartesian(model.GeoCoordinate{Latitude: lat, Longitude: lon}, radius)
				if err != nil {
					t.Fatalf("ToCartesian(%v, %v): %v", lat, lon, err)
				}
				if got := p.Norm(); math.Abs(got-radius) > 1e-9*radius {
					t.Fatalf("|ToCartesian(%v, %v, r=%v)| = %v, want %v", lat, lon, radius, got, radius)
				}
			}
		}
	}
}

func TestToCartesianKnownPoints(t *testing.T) {
	p, err := ToCartesian(model.GeoCoordinate{Latitude: 0, Longitude: -180}, 1)
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	if p != (Vec3{X: -1, Y: 0, Z: 0}) {
		t.Fatalf("ToCartesian(0, -180) = %#v, want (-1, 0, 0)", p)
	}

	for _, lon := range []float64{-180, -45, 0, 90, 180} {
		p, err := UnitCartesian(model.GeoCoordinate{Latitude: 90, Longitude: lon})
		if err != nil {
			t.Fatalf("UnitCartesian: %v", err)
		}
		if p != (Vec3{X: 0, Y: 1, Z: 0}) {
			t.Fatalf("north pole at lon %v = %#v, want (0, 1, 0)", lon, p)
		}
	}

	p, err = ToCartesian(model.GeoCoordinate{Latitude: 0, Longitude: 0}, 2)
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	if p != (Vec3{X: 2, Y: 0, Z: 0}) {
		t.Fatalf("ToCartesian(0, 0, r=2) = %#v, want (2, 0, 0)", p)
	}
}

func TestToCartesianMatchesS2Frame(t *testing.T) {
	coords := []model.GeoCoordinate{
		{Latitude: 39.9042, Longitude: 116.4074},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 51.5, Longitude: -0.12},
		{Latitude: -89.9, Longitude: 12},
	}
	for _, c := range coords {
		p, err := UnitCartesian(c)
		if err != nil {
			t.Fatalf("UnitCartesian(%v): %v", c, err)
		}
		ref := s2.PointFromLatLng(s2.LatLngFromDegrees(c.Latitude, c.Longitude))
		want := Vec3{X: ref.X, Y: ref.Z, Z: -ref.Y}
		if p.DistanceTo(want) > 1e-12 {
			t.Fatalf("UnitCartesian(%v) = %#v, want %#v", c, p, want)
		}
	}
}

func TestToCartesianRejectsInvalidInput(t *testing.T) {
	bad := []model.GeoCoordinate{
		{Latitude: 90.0001, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 180.5},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
	}
	for _, c := range bad {
		if _, err := ToCartesian(c, 1); !errors.Is(err, model.ErrInvalidCoordinate) {
			t.Fatalf("ToCartesian(%v) error = %v, want ErrInvalidCoordinate", c, err)
		}
	}

	for _, r := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, err := ToCartesian(model.GeoCoordinate{}, r); !errors.Is(err, model.ErrInvalidRadius) {
			t.Fatalf("ToCartesian radius %v error = %v, want ErrInvalidRadius", r, err)
		}
	}
}

func TestToGeoRoundTrip(t *testing.T) {
	for _, radius := range []float64{1, 6.371} {
		for lat := -89.5; lat <= 89.5; lat += 4.25 {
			for lon := -179.75; lon <= 180; lon += 9.5 {
				in := model.GeoCoordinate{Latitude: lat, Longitude: lon}
				p, err := ToCartesian(in, radius)
				if err != nil {
					t.Fatalf("ToCartesian(%v): %v", in, err)
				}
				out, err := ToGeo(p, radius)
				if err != nil {
					t.Fatalf("ToGeo(%v): %v", p, err)
				}
				if math.Abs(out.Latitude-lat) > 1e-6 || lonDiff(out.Longitude, lon) > 1e-6 {
					t.Fatalf("round trip %v -> %v", in, out)
				}
			}
		}
	}
}

func TestToGeoAntimeridianAndPoles(t *testing.T) {
	out, err := ToGeo(Vec3{X: -1}, 1)
	if err != nil {
		t.Fatalf("ToGeo: %v", err)
	}
	if out.Latitude != 0 || math.Abs(math.Abs(out.Longitude)-180) > 1e-12 {
		t.Fatalf("ToGeo(-1, 0, 0) = %v, want (0, ±180)", out)
	}

	for _, p := range []Vec3{{Y: 1}, {Y: -1}} {
		out, err := ToGeo(p, 1)
		if err != nil {
			t.Fatalf("ToGeo(%v): %v", p, err)
		}
		if math.Abs(math.Abs(out.Latitude)-90) > 1e-12 || out.Longitude != 0 {
			t.Fatalf("ToGeo(%v) = %v, want (±90, 0)", p, out)
		}
	}
}

func TestToGeoErrors(t *testing.T) {
	if _, err := ToGeo(Vec3{}, 1); !errors.Is(err, model.ErrDegenerateTarget) {
		t.Fatalf("ToGeo(zero) error = %v, want ErrDegenerateTarget", err)
	}
	if _, err := ToGeo(Vec3{X: 2}, 1); !errors.Is(err, model.ErrOffSphere) {
		t.Fatalf("ToGeo(off sphere) error = %v, want ErrOffSphere", err)
	}
	if _, err := ToGeo(Vec3{X: 1}, 0); !errors.Is(err, model.ErrInvalidRadius) {
		t.Fatalf("ToGeo(radius 0) error = %v, want ErrInvalidRadius", err)
	}
}

func TestGeodeticAltitude(t *testing.T) {
	surface, err := ToCartesian(model.GeoCoordinate{Latitude: 10, Longitude: 20}, 1)
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	coord, alt, err := Geodetic(surface.Scale(3), 1)
	if err != nil {
		t.Fatalf("Geodetic: %v", err)
	}
	if math.Abs(alt-2) > 1e-12 {
		t.Fatalf("altitude = %v, want 2", alt)
	}
	if math.Abs(coord.Latitude-10) > 1e-9 || math.Abs(coord.Longitude-20) > 1e-9 {
		t.Fatalf("sub-point = %v, want (10, 20)", coord)
	}

	if _, _, err := Geodetic(Vec3{}, 1); !errors.Is(err, model.ErrDegenerateTarget) {
		t.Fatalf("Geodetic(zero) error = %v, want ErrDegenerateTarget", err)
	}
}

func TestProjector(t *testing.T) {
	if _, err := NewProjector(-2); !errors.Is(err, model.ErrInvalidRadius) {
		t.Fatalf("NewProjector(-2) error = %v, want ErrInvalidRadius", err)
	}
	p, err := NewProjector(5)
	if err != nil {
		t.Fatalf("NewProjector: %v", err)
	}
	pt, err := p.ToCartesian(model.GeoCoordinate{Latitude: 90})
	if err != nil {
		t.Fatalf("ToCartesian: %v", err)
	}
	if pt != (Vec3{Y: 5}) {
		t.Fatalf("north pole on r=5 = %#v, want (0, 5, 0)", pt)
	}
	back, err := p.ToGeo(pt)
	if err != nil {
		t.Fatalf("ToGeo: %v", err)
	}
	if math.Abs(back.Latitude-90) > 1e-12 || back.Longitude != 0 {
		t.Fatalf("ToGeo(north pole) = %v, want (90, 0)", back)
	}
}

// lonDiff is the absolute longitude difference modulo 360.
func lonDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}
