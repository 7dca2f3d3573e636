package location

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/model"
)

// networkLookuper is the part of *maxminddb.Reader that GeoIPDatabase uses.
type networkLookuper interface {
	LookupNetwork(ip net.IP, result any) (*net.IPNet, bool, error)
}

// cityRecord leaves Latitude/Longitude nil when the network has no location,
// as in country-level databases or anycast ranges.
type cityRecord struct {
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// GeoIPDatabase places a known public IP using an offline MaxMind format
// database (GeoLite2-City or compatible).
type GeoIPDatabase struct {
	db     networkLookuper
	closer func() error
	ip     net.IP
}

// OpenGeoIPDatabase opens the .mmdb at path for lookups of publicIP.
func OpenGeoIPDatabase(path, publicIP string) (*GeoIPDatabase, error) {
	ip := net.ParseIP(publicIP)
	if ip == nil {
		return nil, fmt.Errorf("geoip: invalid public ip %q", publicIP)
	}
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &GeoIPDatabase{db: reader, closer: reader.Close, ip: ip}, nil
}

func (g *GeoIPDatabase) Name() string { return "geoip_db" }

func (g *GeoIPDatabase) Locate(ctx context.Context) (model.GeoCoordinate, error) {
	if err := ctx.Err(); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, err)
	}

	log := logging.LoggerFromContext(ctx, nil)

	var rec cityRecord
	network, found, err := g.db.LookupNetwork(g.ip, &rec)
	if err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: geoip lookup %s: %w", model.ErrPositionUnavailable, g.ip, err)
	}
	if !found {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %s not in geoip database", model.ErrPositionUnavailable, g.ip)
	}

	if rec.Location.Latitude == nil || rec.Location.Longitude == nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %s has no location in geoip database", model.ErrPositionUnavailable, g.ip)
	}
	log.Debug(ctx, "geoip record found",
		logging.String("ip", g.ip.String()),
		logging.String("network", network.String()),
	)

	coord := model.GeoCoordinate{Latitude: *rec.Location.Latitude, Longitude: *rec.Location.Longitude}
	if err := coord.Validate(); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, err)
	}
	return coord, nil
}

// Close releases the database.
func (g *GeoIPDatabase) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}
