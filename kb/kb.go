package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/globe-tracker/core"
	"github.com/signalsfoundry/globe-tracker/internal/constellation"
	"github.com/signalsfoundry/globe-tracker/model"
)

// EventType indicates what kind of change happened in the scene.
type EventType int

const (
	EventDeviceMoved EventType = iota
	EventRotationAdvanced
	EventRotationLockChanged
	EventSatellitesUpdated
)

func (e EventType) String() string {
	switch e {
	case EventDeviceMoved:
		return "device_moved"
	case EventRotationAdvanced:
		return "rotation_advanced"
	case EventRotationLockChanged:
		return "rotation_lock_changed"
	case EventSatellitesUpdated:
		return "satellites_updated"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers after every accepted change. Seq grows by
// one per change; concurrent changes may be delivered out of order, so
// subscribers keeping the latest scene should drop events with a lower Seq
// than one already seen.
type Event struct {
	Type  EventType
	Seq   uint64
	Scene Snapshot
}

// Settings are the fixed parameters of the scene.
type Settings struct {
	Radius          float64 // globe radius in scene units
	Standoff        float64 // camera distance beyond the surface
	AngularVelocity float64 // globe spin in rad/s
	AxialTiltDeg    float64
}

// DefaultSettings matches the unit globe used by the renderer.
func DefaultSettings() Settings {
	return Settings{
		Radius:          1,
		Standoff:        2,
		AngularVelocity: 0.06,
		AxialTiltDeg:    core.DefaultAxialTiltDeg,
	}
}

// Snapshot is a copy of the scene state handed to renderers.
type Snapshot struct {
	Seq          uint64               `json:"seq"`
	Device       *model.GeoCoordinate `json:"device,omitempty"`
	Marker       *core.Vec3           `json:"marker,omitempty"`
	Camera       *core.CameraPose     `json:"camera,omitempty"`
	Rotation     core.RotationState   `json:"rotation"`
	Satellites   []model.Satellite    `json:"satellites"`
	Observations []model.Observation  `json:"observations"`
}

// KnowledgeBase is the in-memory, thread-safe scene store. It threads the
// explicit rotation and device state through the pure core transforms and
// publishes every change to subscribers.
type KnowledgeBase struct {
	mu sync.RWMutex

	settings Settings

	device   *model.GeoCoordinate
	marker   core.Vec3
	camera   core.CameraPose
	rotation core.RotationState

	satellites   []model.Satellite
	observations []model.Observation

	seq    uint64
	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty scene. Settings are validated up front
// so that later mutations can only fail on their own input.
func NewKnowledgeBase(settings Settings) (*KnowledgeBase, error) {
	if _, err := core.NewProjector(settings.Radius); err != nil {
		return nil, err
	}
	if _, err := core.PoseForRadius(core.Vec3{Y: settings.Radius}, settings.Radius, settings.Standoff); err != nil {
		return nil, err
	}
	return &KnowledgeBase{
		settings: settings,
		subs:     make(map[int]func(Event)),
	}, nil
}

// Settings returns the scene parameters.
func (kb *KnowledgeBase) Settings() Settings {
	return kb.settings
}

// SetDevicePosition accepts a new device coordinate: it projects the marker,
// re-aligns the camera on it, turns the globe to face its longitude and
// refreshes satellite observations. On error the previous state is kept.
func (kb *KnowledgeBase) SetDevicePosition(coord model.GeoCoordinate) error {
	marker, err := core.ToCartesian(coord, kb.settings.Radius)
	if err != nil {
		return fmt.Errorf("set device position: %w", err)
	}
	pose, err := core.PoseForRadius(marker, kb.settings.Radius, kb.settings.Standoff)
	if err != nil {
		return fmt.Errorf("set device position: %w", err)
	}

	kb.mu.Lock()
	device := coord
	kb.device = &device
	kb.marker = marker
	kb.camera = pose
	kb.rotation = core.FaceLongitude(kb.rotation, coord.Longitude)
	kb.observations = constellation.Observe(marker, kb.satellites, kb.settings.Radius)
	kb.publishLocked(EventDeviceMoved)
	return nil
}

// AdvanceRotation spins the globe by the configured angular velocity over
// delta seconds. It is a no-op while the rotation is locked.
func (kb *KnowledgeBase) AdvanceRotation(deltaSeconds float64) core.RotationState {
	kb.mu.Lock()
	next := core.Advance(kb.rotation, deltaSeconds, kb.settings.AngularVelocity)
	if next == kb.rotation {
		kb.mu.Unlock()
		return next
	}
	kb.rotation = next
	kb.publishLocked(EventRotationAdvanced)
	return next
}

// SetRotationLocked locks or unlocks the globe spin.
func (kb *KnowledgeBase) SetRotationLocked(locked bool) core.RotationState {
	kb.mu.Lock()
	if kb.rotation.Locked == locked {
		state := kb.rotation
		kb.mu.Unlock()
		return state
	}
	kb.rotation = core.SetLocked(kb.rotation, locked)
	state := kb.rotation
	kb.publishLocked(EventRotationLockChanged)
	return state
}

// ToggleRotationLock flips the lock flag, as the lock button does.
func (kb *KnowledgeBase) ToggleRotationLock() core.RotationState {
	kb.mu.Lock()
	kb.rotation = core.SetLocked(kb.rotation, !kb.rotation.Locked)
	state := kb.rotation
	kb.publishLocked(EventRotationLockChanged)
	return state
}

// UpdateSatellites replaces the constellation and recomputes observations
// from the current device position.
func (kb *KnowledgeBase) UpdateSatellites(sats []model.Satellite) {
	copied := append([]model.Satellite(nil), sats...)

	kb.mu.Lock()
	kb.satellites = copied
	if kb.device != nil {
		kb.observations = constellation.Observe(kb.marker, copied, kb.settings.Radius)
	} else {
		kb.observations = nil
	}
	kb.publishLocked(EventSatellitesUpdated)
}

// Device returns the last accepted device coordinate.
func (kb *KnowledgeBase) Device() (model.GeoCoordinate, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if kb.device == nil {
		return model.GeoCoordinate{}, false
	}
	return *kb.device, true
}

// Rotation returns the current rotation state.
func (kb *KnowledgeBase) Rotation() core.RotationState {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.rotation
}

// Snapshot returns a copy of the whole scene.
func (kb *KnowledgeBase) Snapshot() Snapshot {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.snapshotLocked()
}

// Subscribe registers a callback for scene events. It returns an
// unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) snapshotLocked() Snapshot {
	s := Snapshot{
		Seq:          kb.seq,
		Rotation:     kb.rotation,
		Satellites:   append([]model.Satellite(nil), kb.satellites...),
		Observations: append([]model.Observation(nil), kb.observations...),
	}
	if kb.device != nil {
		device := *kb.device
		marker := kb.marker
		camera := kb.camera
		s.Device = &device
		s.Marker = &marker
		s.Camera = &camera
	}
	return s
}

// publishLocked must be called with kb.mu held for writing; it releases the
// lock and notifies subscribers outside of it to avoid deadlocks.
func (kb *KnowledgeBase) publishLocked(t EventType) {
	kb.seq++
	event := Event{Type: t, Seq: kb.seq, Scene: kb.snapshotLocked()}
	subs := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		subs = append(subs, fn)
	}
	kb.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
}
