// Package location resolves the device's geographic position from a fixed
// fix, an IP geolocation web service or an offline GeoIP database.
package location

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/globe-tracker/model"
)

// DefaultCoordinate is shown when no provider can place the device.
var DefaultCoordinate = model.GeoCoordinate{Latitude: 39.9042, Longitude: 116.4074}

// Provider produces the device's current coordinate. Implementations fail
// with an error wrapping model.ErrPositionUnavailable.
type Provider interface {
	Name() string
	Locate(ctx context.Context) (model.GeoCoordinate, error)
}

// Fixed returns a pre-configured fix, the way a device GPS would.
type Fixed struct {
	coord *model.GeoCoordinate
}

// NewFixed returns a provider for coord. A nil coord behaves like a device
// whose positioning is unavailable.
func NewFixed(coord *model.GeoCoordinate) *Fixed {
	if coord == nil {
		return &Fixed{}
	}
	c := *coord
	return &Fixed{coord: &c}
}

func (f *Fixed) Name() string { return "fixed" }

func (f *Fixed) Locate(ctx context.Context) (model.GeoCoordinate, error) {
	if err := ctx.Err(); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, err)
	}
	if f.coord == nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: no fix configured", model.ErrPositionUnavailable)
	}
	if err := f.coord.Validate(); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, err)
	}
	return *f.coord, nil
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Coordinate model.GeoCoordinate
	Provider   string // provider that produced the fix, empty when defaulted
	Defaulted  bool
	Err        error // the provider failure that caused the default, if any
}

// Resolve asks p for a position and falls back to def when every source
// fails. The returned coordinate is always valid.
func Resolve(ctx context.Context, p Provider, def model.GeoCoordinate) Resolution {
	if p != nil {
		coord, err := p.Locate(ctx)
		if err == nil {
			name := p.Name()
			if c, ok := p.(*Chain); ok {
				name = c.LastProvider()
			}
			return Resolution{Coordinate: coord, Provider: name}
		}
		return Resolution{Coordinate: def, Defaulted: true, Err: err}
	}
	return Resolution{
		Coordinate: def,
		Defaulted:  true,
		Err:        fmt.Errorf("%w: no provider configured", model.ErrPositionUnavailable),
	}
}
