package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes recorded by ObserveLookup.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// GlobeCollector bundles Prometheus metrics for the globe driver: frame
// pacing, rotation state, location lookups and the mock constellation.
type GlobeCollector struct {
	gatherer prometheus.Gatherer

	FramesTotal    prometheus.Counter
	RotationAngle  prometheus.Gauge
	RotationLocked prometheus.Gauge

	LocationLookups        *prometheus.CounterVec
	LocationLookupDuration *prometheus.HistogramVec

	ConstellationRefreshes prometheus.Counter
	VisibleSatellites      prometheus.Gauge
}

// NewGlobeCollector registers the globe metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewGlobeCollector(reg prometheus.Registerer) (*GlobeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_total",
		Help: "Total number of animation frames driven.",
	}), "globe_frames_total")
	if err != nil {
		return nil, err
	}
	angle, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_rotation_angle_radians",
		Help: "Current globe spin angle in [0, 2π).",
	}), "globe_rotation_angle_radians")
	if err != nil {
		return nil, err
	}
	locked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_rotation_locked",
		Help: "1 while the globe spin is locked, 0 otherwise.",
	}), "globe_rotation_locked")
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_lookups_total",
		Help: "Total number of location provider attempts, labeled by provider and outcome.",
	}, []string{"provider", "outcome"})
	lookups, err = registerCounterVec(reg, lookups, "location_lookups_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "location_lookup_duration_seconds",
		Help:    "Location provider latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"provider"})
	durations, err = registerHistogramVec(reg, durations, "location_lookup_duration_seconds")
	if err != nil {
		return nil, err
	}

	refreshes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "constellation_refreshes_total",
		Help: "Total number of mock constellation refreshes.",
	}), "constellation_refreshes_total")
	if err != nil {
		return nil, err
	}
	visible, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "constellation_visible_satellites",
		Help: "Satellites currently above the device's horizon.",
	}), "constellation_visible_satellites")
	if err != nil {
		return nil, err
	}

	return &GlobeCollector{
		gatherer:               gatherer,
		FramesTotal:            frames,
		RotationAngle:          angle,
		RotationLocked:         locked,
		LocationLookups:        lookups,
		LocationLookupDuration: durations,
		ConstellationRefreshes: refreshes,
		VisibleSatellites:      visible,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GlobeCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one driven frame and the resulting rotation.
func (c *GlobeCollector) ObserveFrame(angle float64, locked bool) {
	if c == nil {
		return
	}
	c.FramesTotal.Inc()
	c.RotationAngle.Set(angle)
	if locked {
		c.RotationLocked.Set(1)
	} else {
		c.RotationLocked.Set(0)
	}
}

// ObserveLookup records one location provider attempt.
func (c *GlobeCollector) ObserveLookup(provider, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.LocationLookups.WithLabelValues(provider, outcome).Inc()
	c.LocationLookupDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveConstellation records a constellation refresh.
func (c *GlobeCollector) ObserveConstellation(visible int) {
	if c == nil {
		return
	}
	c.ConstellationRefreshes.Inc()
	c.VisibleSatellites.Set(float64(visible))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
