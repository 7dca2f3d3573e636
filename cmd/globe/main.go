package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/globe-tracker/internal/config"
	"github.com/signalsfoundry/globe-tracker/internal/constellation"
	"github.com/signalsfoundry/globe-tracker/internal/location"
	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/internal/observability"
	"github.com/signalsfoundry/globe-tracker/internal/overlay"
	"github.com/signalsfoundry/globe-tracker/kb"
	"github.com/signalsfoundry/globe-tracker/model"
	"github.com/signalsfoundry/globe-tracker/timectrl"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./globe.yaml or ./configs/globe.yaml)")
	duration := flag.Duration("duration", 0, "total animation time; 0 runs until interrupted")
	geojsonPath := flag.String("geojson", "", "write the final scene as GeoJSON to this path on exit")
	lock := flag.Bool("lock", false, "start with the globe rotation locked")
	commands := flag.Bool("stdin", false, "read locate/lock/unlock/toggle/refresh commands from stdin")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(ctx, "failed to load config", logging.Err(err))
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: true,
		Output:    os.Stderr,
	})

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewGlobeCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.Metrics.Addr, collector, log)

	store, err := kb.NewKnowledgeBase(kb.Settings{
		Radius:          cfg.Globe.Radius,
		Standoff:        cfg.Camera.Standoff,
		AngularVelocity: cfg.Rotation.AngularVelocity,
		AxialTiltDeg:    cfg.Globe.AxialTiltDeg,
	})
	if err != nil {
		log.Error(ctx, "invalid scene settings", logging.Err(err))
		os.Exit(1)
	}
	store.SetRotationLocked(cfg.Rotation.Locked || *lock)
	unsubscribe := store.Subscribe(logSceneEvents(ctx, log))
	defer unsubscribe()

	gen, err := constellation.NewGenerator(cfg.Satellites.Count, cfg.Satellites.Spread, seedFor(cfg.Satellites.Seed))
	if err != nil {
		log.Error(ctx, "invalid constellation settings", logging.Err(err))
		os.Exit(1)
	}

	provider, closeProviders := buildLocationChain(cfg, log, collector)
	defer closeProviders()

	res := locateDevice(ctx, provider, cfg.Location.Default.Coordinate(), log)
	if err := store.SetDevicePosition(res.Coordinate); err != nil {
		log.Error(ctx, "failed to place device", logging.Err(err))
		os.Exit(1)
	}

	go gen.Run(ctx, cfg.Satellites.Refresh, refreshSink(store, collector))
	if *commands {
		go newControls(store, gen, collector, provider, log).readCommands(ctx, os.Stdin)
	}

	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Clock.Tick, cfg.Clock.ClockMode())
	emitter := newFrameEmitter(os.Stdout, cfg.Render.Every, store.Settings().AxialTiltDeg)

	log.Info(ctx, "starting globe",
		logging.String("device", res.Coordinate.String()),
		logging.Bool("defaulted", res.Defaulted),
		logging.Duration("duration", *duration),
		logging.Duration("tick", cfg.Clock.Tick),
		logging.String("mode", cfg.Clock.ClockMode().String()),
	)
	runLoop(ctx, tc, store, collector, emitter, *duration, log)

	if *geojsonPath != "" {
		if err := overlay.WriteFile(*geojsonPath, store.Snapshot()); err != nil {
			log.Error(ctx, "failed to write overlay", logging.String("path", *geojsonPath), logging.Err(err))
		} else {
			log.Info(ctx, "wrote overlay", logging.String("path", *geojsonPath))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Info(ctx, "globe stopped", logging.Int("frames", int(tc.Frames())))
}

// buildLocationChain wires fixed fix → IP lookup → GeoIP database as
// configured. The returned func releases provider resources.
func buildLocationChain(cfg *config.Config, log logging.Logger, rec location.LookupRecorder) (*location.Chain, func()) {
	var primary location.Provider
	if cfg.Location.Fixed.Enabled {
		coord := cfg.Location.Fixed.Coordinate()
		primary = location.NewFixed(&coord)
	}

	var fallbacks []location.Provider
	if cfg.Location.IPLookupEnabled {
		fallbacks = append(fallbacks, location.NewIPLookup(cfg.Location.IPLookupURL, cfg.Location.Timeout))
	}

	closer := func() {}
	if cfg.Location.GeoIPDB != "" {
		db, err := location.OpenGeoIPDatabase(cfg.Location.GeoIPDB, cfg.Location.PublicIP)
		if err != nil {
			log.Warn(context.Background(), "geoip database unavailable", logging.String("path", cfg.Location.GeoIPDB), logging.Err(err))
		} else {
			fallbacks = append(fallbacks, db)
			closer = func() { _ = db.Close() }
		}
	}

	return location.NewChain(primary, fallbacks,
		location.WithLogger(log),
		location.WithRecorder(rec),
	), closer
}

func locateDevice(ctx context.Context, p location.Provider, def model.GeoCoordinate, log logging.Logger) location.Resolution {
	res := location.Resolve(ctx, p, def)
	if res.Defaulted {
		log.Warn(ctx, "device position unavailable; using default",
			logging.String("default", def.String()),
			logging.Err(res.Err),
		)
	} else {
		log.Info(ctx, "device located",
			logging.String("provider", res.Provider),
			logging.String("position", res.Coordinate.String()),
		)
	}
	return res
}

func seedFor(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

func serveMetrics(addr string, collector *observability.GlobeCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
