package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/signalsfoundry/globe-tracker/core"
	"github.com/signalsfoundry/globe-tracker/internal/constellation"
	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/internal/observability"
	"github.com/signalsfoundry/globe-tracker/kb"
	"github.com/signalsfoundry/globe-tracker/model"
	"github.com/signalsfoundry/globe-tracker/timectrl"
)

// frame is one line of renderer output.
type frame struct {
	SimTime  time.Time            `json:"sim_time"`
	Frame    uint64               `json:"frame"`
	Rotation core.RotationState   `json:"rotation"`
	Camera   *core.CameraPose     `json:"camera,omitempty"`
	Device   *model.GeoCoordinate `json:"device,omitempty"`
	// Marker is the device marker after the globe's spin and tilt.
	Marker  *core.Vec3 `json:"marker,omitempty"`
	Visible int        `json:"visible_satellites"`
}

// frameEmitter writes every nth frame as a JSON line.
type frameEmitter struct {
	mu    sync.Mutex
	enc   *json.Encoder
	every uint64
	tilt  float64
	count uint64
}

func newFrameEmitter(w io.Writer, every int, axialTiltDeg float64) *frameEmitter {
	if every < 1 {
		every = 1
	}
	return &frameEmitter{enc: json.NewEncoder(w), every: uint64(every), tilt: axialTiltDeg}
}

// Emit is called once per frame; it only writes when the frame is due.
func (e *frameEmitter) Emit(simTime time.Time, s kb.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.count++
	if (e.count-1)%e.every != 0 {
		return nil
	}
	f := frame{
		SimTime:  simTime,
		Frame:    e.count,
		Rotation: s.Rotation,
		Camera:   s.Camera,
		Device:   s.Device,
		Visible:  constellation.VisibleCount(s.Observations),
	}
	if s.Marker != nil {
		m := core.Orient(*s.Marker, s.Rotation.Angle, e.tilt)
		f.Marker = &m
	}
	return e.enc.Encode(f)
}

// runLoop drives the scene from the time controller until the duration
// elapses or ctx is cancelled.
func runLoop(
	ctx context.Context,
	tc *timectrl.TimeController,
	store *kb.KnowledgeBase,
	collector *observability.GlobeCollector,
	emitter *frameEmitter,
	duration time.Duration,
	log logging.Logger,
) {
	if log == nil {
		log = logging.Noop()
	}

	tc.AddListener(func(simTime time.Time, delta time.Duration) {
		state := store.AdvanceRotation(delta.Seconds())
		collector.ObserveFrame(state.Angle, state.Locked)
		if emitter == nil {
			return
		}
		if err := emitter.Emit(simTime, store.Snapshot()); err != nil {
			log.Warn(ctx, "failed to emit frame", logging.Err(err))
		}
	})

	done := tc.Start(duration)
	select {
	case <-done:
	case <-ctx.Done():
		tc.Stop()
		<-done
	}
}

// refreshSink feeds a regenerated constellation into the scene.
func refreshSink(store *kb.KnowledgeBase, collector *observability.GlobeCollector) func([]model.Satellite) {
	return func(sats []model.Satellite) {
		store.UpdateSatellites(sats)
		collector.ObserveConstellation(constellation.VisibleCount(store.Snapshot().Observations))
	}
}

// logSceneEvents logs the discrete scene changes; per-frame rotation
// updates are left to the frame output.
func logSceneEvents(ctx context.Context, log logging.Logger) func(kb.Event) {
	return func(ev kb.Event) {
		switch ev.Type {
		case kb.EventDeviceMoved:
			if ev.Scene.Device != nil {
				log.Info(ctx, "camera aligned on device",
					logging.String("device", ev.Scene.Device.String()),
					logging.Float64("angle_rad", ev.Scene.Rotation.Angle),
				)
			}
		case kb.EventRotationLockChanged:
			log.Info(ctx, "rotation lock changed", logging.Bool("locked", ev.Scene.Rotation.Locked))
		case kb.EventSatellitesUpdated:
			log.Debug(ctx, "satellites refreshed",
				logging.Int("count", len(ev.Scene.Satellites)),
				logging.Int("visible", constellation.VisibleCount(ev.Scene.Observations)),
			)
		}
	}
}
