package model

// Position is a point in scene units, centred on the globe.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Satellite is a member of the mock constellation overlaid on the globe.
type Satellite struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// Observation describes a satellite as seen from the device position.
type Observation struct {
	SatelliteID int           `json:"satellite_id"`
	SubPoint    GeoCoordinate `json:"sub_point"`
	// Altitude above the globe surface, in scene units.
	Altitude float64 `json:"altitude"`
	// Elevation over the device's local horizon, in degrees.
	Elevation float64 `json:"elevation_deg"`
	// GroundDistanceDeg is the great-circle angle between the device and
	// the sub-satellite point.
	GroundDistanceDeg float64 `json:"ground_distance_deg"`
	Visible           bool    `json:"visible"`
}
