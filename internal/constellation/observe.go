package constellation

import (
	"github.com/golang/geo/s2"

	"github.com/signalsfoundry/globe-tracker/core"
	"github.com/signalsfoundry/globe-tracker/model"
)

// Observe describes every satellite as seen from the device marker on a
// globe of the given radius. Satellites at the globe centre have no
// sub-point and are skipped.
func Observe(device core.Vec3, sats []model.Satellite, radius float64) []model.Observation {
	if len(sats) == 0 {
		return nil
	}
	deviceCoord, _, err := core.Geodetic(device, radius)
	if err != nil {
		return nil
	}
	deviceLL := s2.LatLngFromDegrees(deviceCoord.Latitude, deviceCoord.Longitude)

	obs := make([]model.Observation, 0, len(sats))
	for _, sat := range sats {
		pos := core.Vec3{X: sat.Position.X, Y: sat.Position.Y, Z: sat.Position.Z}
		sub, alt, err := core.Geodetic(pos, radius)
		if err != nil {
			continue
		}
		subLL := s2.LatLngFromDegrees(sub.Latitude, sub.Longitude)

		obs = append(obs, model.Observation{
			SatelliteID:       sat.ID,
			SubPoint:          sub,
			Altitude:          alt,
			Elevation:         core.ElevationDegrees(device, pos),
			GroundDistanceDeg: deviceLL.Distance(subLL).Degrees(),
			Visible:           core.Visible(device, pos, radius),
		})
	}
	return obs
}

// VisibleCount returns how many observations are above the horizon.
func VisibleCount(obs []model.Observation) int {
	n := 0
	for _, o := range obs {
		if o.Visible {
			n++
		}
	}
	return n
}
