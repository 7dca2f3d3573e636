package model

import (
	"fmt"
	"math"
)

// GeoCoordinate is a position on the Earth's surface in degrees.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate lies within [-90,90] x [-180,180].
// The returned error wraps ErrInvalidCoordinate.
func (c GeoCoordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func (c GeoCoordinate) String() string {
	return fmt.Sprintf("(%.4f°, %.4f°)", c.Latitude, c.Longitude)
}
