package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/globe-tracker/internal/observability"
	"github.com/signalsfoundry/globe-tracker/model"
	"github.com/signalsfoundry/globe-tracker/timectrl"
)

// EnvPrefix namespaces environment overrides: GLOBE_CAMERA_STANDOFF → camera.standoff.
const EnvPrefix = "GLOBE"

// Config holds all application configuration.
type Config struct {
	Globe      GlobeConfig                 `mapstructure:"globe"`
	Rotation   RotationConfig              `mapstructure:"rotation"`
	Camera     CameraConfig                `mapstructure:"camera"`
	Location   LocationConfig              `mapstructure:"location"`
	Satellites SatellitesConfig            `mapstructure:"satellites"`
	Clock      ClockConfig                 `mapstructure:"clock"`
	Render     RenderConfig                `mapstructure:"render"`
	Log        LogConfig                   `mapstructure:"log"`
	Metrics    MetricsConfig               `mapstructure:"metrics"`
	Tracing    observability.TracingConfig `mapstructure:"tracing"`
}

type GlobeConfig struct {
	Radius       float64 `mapstructure:"radius"`
	AxialTiltDeg float64 `mapstructure:"axial_tilt_deg"`
}

type RotationConfig struct {
	AngularVelocity float64 `mapstructure:"angular_velocity"` // rad/s
	Locked          bool    `mapstructure:"locked"`
}

// CameraConfig places the camera Standoff units beyond the surface. The
// resulting distance from the globe centre must stay within the zoom range
// [MinDistance, MaxDistance].
type CameraConfig struct {
	Standoff    float64 `mapstructure:"standoff"`
	MinDistance float64 `mapstructure:"min_distance"`
	MaxDistance float64 `mapstructure:"max_distance"`
}

// CoordinateConfig is a latitude/longitude pair in degrees.
type CoordinateConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// Coordinate converts to the model type.
func (c CoordinateConfig) Coordinate() model.GeoCoordinate {
	return model.GeoCoordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

type FixedConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	CoordinateConfig `mapstructure:",squash"`
}

type LocationConfig struct {
	Fixed           FixedConfig      `mapstructure:"fixed"`
	IPLookupEnabled bool             `mapstructure:"ip_lookup_enabled"`
	IPLookupURL     string           `mapstructure:"ip_lookup_url"`
	GeoIPDB         string           `mapstructure:"geoip_db"`
	PublicIP        string           `mapstructure:"public_ip"`
	Timeout         time.Duration    `mapstructure:"timeout"`
	Default         CoordinateConfig `mapstructure:"default"`
}

type SatellitesConfig struct {
	Count   int           `mapstructure:"count"`
	Spread  float64       `mapstructure:"spread"`
	Refresh time.Duration `mapstructure:"refresh"`
	Seed    int64         `mapstructure:"seed"`
}

type ClockConfig struct {
	Tick time.Duration `mapstructure:"tick"`
	Mode string        `mapstructure:"mode"`
}

// RenderConfig controls how often a frame line is emitted, in ticks.
type RenderConfig struct {
	Every int `mapstructure:"every"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics listener
}

// ClockMode resolves the configured animation mode.
func (c ClockConfig) ClockMode() timectrl.Mode {
	m, _ := timectrl.ParseMode(strings.ToLower(c.Mode))
	return m
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables. An explicit path must exist; otherwise globe.yaml
// is looked up in . and ./configs and skipped when missing.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("globe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("globe.radius", 1.0)
	v.SetDefault("globe.axial_tilt_deg", 23.5)
	v.SetDefault("rotation.angular_velocity", 0.06)
	v.SetDefault("rotation.locked", false)
	v.SetDefault("camera.standoff", 2.0)
	v.SetDefault("camera.min_distance", 3.0)
	v.SetDefault("camera.max_distance", 20.0)

	v.SetDefault("location.fixed.enabled", false)
	v.SetDefault("location.fixed.latitude", 0.0)
	v.SetDefault("location.fixed.longitude", 0.0)
	v.SetDefault("location.ip_lookup_enabled", true)
	v.SetDefault("location.ip_lookup_url", "https://ipapi.co/json/")
	v.SetDefault("location.geoip_db", "")
	v.SetDefault("location.public_ip", "")
	v.SetDefault("location.timeout", 5*time.Second)
	v.SetDefault("location.default.latitude", 39.9042)
	v.SetDefault("location.default.longitude", 116.4074)

	v.SetDefault("satellites.count", 4)
	v.SetDefault("satellites.spread", 20.0)
	v.SetDefault("satellites.refresh", 5*time.Second)
	v.SetDefault("satellites.seed", 0)

	v.SetDefault("clock.tick", timectrl.DefaultTick)
	v.SetDefault("clock.mode", "realtime")
	v.SetDefault("render.every", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "globe-tracker")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if !finite(c.Globe.Radius) || c.Globe.Radius <= 0 {
		errs = append(errs, fmt.Sprintf("globe.radius must be positive, got %v", c.Globe.Radius))
	}
	if !finite(c.Globe.AxialTiltDeg) {
		errs = append(errs, "globe.axial_tilt_deg must be finite")
	}
	if !finite(c.Rotation.AngularVelocity) {
		errs = append(errs, "rotation.angular_velocity must be finite")
	}
	if !finite(c.Camera.Standoff) || c.Camera.Standoff < 0 {
		errs = append(errs, fmt.Sprintf("camera.standoff must be >= 0, got %v", c.Camera.Standoff))
	}
	if !finite(c.Camera.MinDistance) || !finite(c.Camera.MaxDistance) ||
		c.Camera.MinDistance < 0 || c.Camera.MinDistance > c.Camera.MaxDistance {
		errs = append(errs, fmt.Sprintf("camera.min_distance/max_distance must satisfy 0 <= min <= max, got [%v, %v]",
			c.Camera.MinDistance, c.Camera.MaxDistance))
	} else if d := c.Globe.Radius + c.Camera.Standoff; d < c.Camera.MinDistance || d > c.Camera.MaxDistance {
		errs = append(errs, fmt.Sprintf("camera distance globe.radius+camera.standoff = %v outside [%v, %v]",
			d, c.Camera.MinDistance, c.Camera.MaxDistance))
	}

	if c.Location.Fixed.Enabled {
		if err := c.Location.Fixed.Coordinate().Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("location.fixed: %v", err))
		}
	}
	if err := c.Location.Default.Coordinate().Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("location.default: %v", err))
	}
	if c.Location.IPLookupEnabled {
		u, err := url.Parse(c.Location.IPLookupURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("location.ip_lookup_url must be an http(s) URL, got %q", c.Location.IPLookupURL))
		}
	}
	if c.Location.Timeout <= 0 {
		errs = append(errs, "location.timeout must be positive")
	}

	if c.Satellites.Count < 0 {
		errs = append(errs, fmt.Sprintf("satellites.count must be >= 0, got %d", c.Satellites.Count))
	}
	if !finite(c.Satellites.Spread) || c.Satellites.Spread <= 0 {
		errs = append(errs, fmt.Sprintf("satellites.spread must be positive, got %v", c.Satellites.Spread))
	}
	if c.Satellites.Refresh <= 0 {
		errs = append(errs, "satellites.refresh must be positive")
	}

	if c.Clock.Tick <= 0 {
		errs = append(errs, "clock.tick must be positive")
	}
	if _, ok := timectrl.ParseMode(strings.ToLower(c.Clock.Mode)); !ok {
		errs = append(errs, fmt.Sprintf("clock.mode must be realtime or accelerated, got %q", c.Clock.Mode))
	}
	if c.Render.Every < 1 {
		errs = append(errs, fmt.Sprintf("render.every must be >= 1, got %d", c.Render.Every))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "stdout", "otlp", "otlpgrpc", "":
	default:
		errs = append(errs, fmt.Sprintf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
