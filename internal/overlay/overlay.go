// Package overlay renders a scene snapshot as GeoJSON layers.
package overlay

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/signalsfoundry/globe-tracker/kb"
	"github.com/signalsfoundry/globe-tracker/model"
)

// DeviceLabel is the label of the device marker.
const DeviceLabel = "current position"

// Feature kinds, stored under the "kind" property.
const (
	KindDevice    = "device"
	KindSatellite = "satellite"
	KindSightLine = "sight_line"
)

func point(c model.GeoCoordinate) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// FeatureCollection builds the overlay for a snapshot: the device marker,
// one point per sub-satellite point and a ground track from the device to
// every visible satellite.
func FeatureCollection(s kb.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var device orb.Point
	if s.Device != nil {
		device = point(*s.Device)
		f := geojson.NewFeature(device)
		f.Properties["kind"] = KindDevice
		f.Properties["label"] = DeviceLabel
		fc.Append(f)
	}

	names := make(map[int]string, len(s.Satellites))
	for _, sat := range s.Satellites {
		names[sat.ID] = sat.Name
	}

	for _, obs := range s.Observations {
		sub := point(obs.SubPoint)
		f := geojson.NewFeature(sub)
		f.ID = obs.SatelliteID
		f.Properties["kind"] = KindSatellite
		f.Properties["name"] = names[obs.SatelliteID]
		f.Properties["altitude"] = obs.Altitude
		f.Properties["elevation_deg"] = obs.Elevation
		f.Properties["visible"] = obs.Visible
		fc.Append(f)

		if s.Device == nil || !obs.Visible {
			continue
		}
		line := geojson.NewFeature(sightLine(device, sub))
		line.Properties["kind"] = KindSightLine
		line.Properties["satellite_id"] = obs.SatelliteID
		line.Properties["ground_distance_km"] = geo.Distance(device, sub) / 1000
		fc.Append(line)
	}

	return fc
}

// sightLine joins a and b the short way round. A line that would cross the
// antimeridian is split there into a MultiLineString so map renderers do not
// draw it across the whole map.
func sightLine(a, b orb.Point) orb.Geometry {
	d := b.Lon() - a.Lon()
	if math.Abs(d) <= 180 {
		return orb.LineString{a, b}
	}

	edge, unwrapped := 180.0, b.Lon()+360
	if d > 0 {
		edge, unwrapped = -180.0, b.Lon()-360
	}
	t := (edge - a.Lon()) / (unwrapped - a.Lon())
	lat := a.Lat() + t*(b.Lat()-a.Lat())

	return orb.MultiLineString{
		{a, orb.Point{edge, lat}},
		{orb.Point{-edge, lat}, b},
	}
}

// Encode writes the overlay for s as GeoJSON.
func Encode(w io.Writer, s kb.Snapshot) error {
	raw, err := FeatureCollection(s).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal overlay: %w", err)
	}
	var buf json.RawMessage = raw
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buf)
}

// WriteFile writes the overlay for s to path.
func WriteFile(path string, s kb.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
