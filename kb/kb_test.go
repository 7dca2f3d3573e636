package kb

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/signalsfoundry/globe-tracker/core"
	"github.com/signalsfoundry/globe-tracker/model"
)

func newStore(t *testing.T) *KnowledgeBase {
	t.Helper()
	store, err := NewKnowledgeBase(DefaultSettings())
	if err != nil {
		t.Fatalf("NewKnowledgeBase: %v", err)
	}
	return store
}

func TestNewKnowledgeBaseValidatesSettings(t *testing.T) {
	s := DefaultSettings()
	s.Radius = 0
	if _, err := NewKnowledgeBase(s); !errors.Is(err, model.ErrInvalidRadius) {
		t.Fatalf("radius 0 error = %v, want ErrInvalidRadius", err)
	}
	s = DefaultSettings()
	s.Standoff = -1
	if _, err := NewKnowledgeBase(s); !errors.Is(err, model.ErrInvalidStandoff) {
		t.Fatalf("standoff -1 error = %v, want ErrInvalidStandoff", err)
	}
}

func TestSetDevicePositionAlignsCamera(t *testing.T) {
	store := newStore(t)
	coord := model.GeoCoordinate{Latitude: 39.9042, Longitude: 116.4074}
	if err := store.SetDevicePosition(coord); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}

	snap := store.Snapshot()
	if snap.Device == nil || *snap.Device != coord {
		t.Fatalf("device = %v, want %v", snap.Device, coord)
	}
	want, _ := core.UnitCartesian(coord)
	if *snap.Marker != want {
		t.Fatalf("marker = %#v, want %#v", *snap.Marker, want)
	}
	if snap.Camera.LookAt != want {
		t.Fatalf("camera lookAt = %#v, want marker %#v", snap.Camera.LookAt, want)
	}
	if got := snap.Camera.Position.Norm(); math.Abs(got-3) > 1e-12 {
		t.Fatalf("|camera| = %v, want 3", got)
	}
	if wantAngle := coord.Longitude * math.Pi / 180; math.Abs(snap.Rotation.Angle-wantAngle) > 1e-12 {
		t.Fatalf("rotation angle = %v, want %v", snap.Rotation.Angle, wantAngle)
	}
}

func TestSetDevicePositionKeepsLastGoodState(t *testing.T) {
	store := newStore(t)
	good := model.GeoCoordinate{Latitude: 10, Longitude: 20}
	if err := store.SetDevicePosition(good); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}

	err := store.SetDevicePosition(model.GeoCoordinate{Latitude: 100})
	if !errors.Is(err, model.ErrInvalidCoordinate) {
		t.Fatalf("error = %v, want ErrInvalidCoordinate", err)
	}
	if got, ok := store.Device(); !ok || got != good {
		t.Fatalf("device = %v, want last good %v", got, good)
	}
}

func TestAdvanceRotationRespectsLock(t *testing.T) {
	store := newStore(t)
	s := store.AdvanceRotation(10)
	if want := 0.6; math.Abs(s.Angle-want) > 1e-12 {
		t.Fatalf("angle = %v, want %v", s.Angle, want)
	}

	store.SetRotationLocked(true)
	if got := store.AdvanceRotation(10); got.Angle != s.Angle || !got.Locked {
		t.Fatalf("locked advance = %#v, want angle %v", got, s.Angle)
	}

	if got := store.ToggleRotationLock(); got.Locked {
		t.Fatalf("toggle should unlock")
	}
	if got := store.AdvanceRotation(10); math.Abs(got.Angle-1.2) > 1e-12 {
		t.Fatalf("angle after unlock = %v, want 1.2", got.Angle)
	}
}

func TestUpdateSatellitesObservesFromDevice(t *testing.T) {
	store := newStore(t)
	sats := []model.Satellite{{ID: 1, Position: model.Position{X: 4}}}

	store.UpdateSatellites(sats)
	if snap := store.Snapshot(); len(snap.Satellites) != 1 || len(snap.Observations) != 0 {
		t.Fatalf("without a device: %d satellites, %d observations", len(snap.Satellites), len(snap.Observations))
	}

	if err := store.SetDevicePosition(model.GeoCoordinate{}); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}
	snap := store.Snapshot()
	if len(snap.Observations) != 1 || !snap.Observations[0].Visible {
		t.Fatalf("observations = %#v, want one visible", snap.Observations)
	}

	sats[0].Position.X = -4
	if got := store.Snapshot().Satellites[0].Position.X; got != 4 {
		t.Fatalf("store aliased caller slice, X = %v", got)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := newStore(t)

	var got []EventType
	unsubscribe := store.Subscribe(func(e Event) {
		got = append(got, e.Type)
	})

	if err := store.SetDevicePosition(model.GeoCoordinate{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}
	store.AdvanceRotation(1)
	store.SetRotationLocked(true)
	store.SetRotationLocked(true) // unchanged, no event
	store.AdvanceRotation(1)      // locked, no event
	store.UpdateSatellites(nil)

	want := []EventType{EventDeviceMoved, EventRotationAdvanced, EventRotationLockChanged, EventSatellitesUpdated}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	unsubscribe()
	store.ToggleRotationLock()
	if len(got) != len(want) {
		t.Fatalf("received %d events after unsubscribe", len(got)-len(want))
	}
}

func TestEventCarriesSnapshot(t *testing.T) {
	store := newStore(t)
	var scene Snapshot
	store.Subscribe(func(e Event) { scene = e.Scene })

	coord := model.GeoCoordinate{Latitude: -33.8688, Longitude: 151.2093}
	if err := store.SetDevicePosition(coord); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}
	if scene.Device == nil || *scene.Device != coord || scene.Camera == nil {
		t.Fatalf("event scene = %#v", scene)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
			_ = store.Rotation()
		}()
		go func() {
			defer wg.Done()
			store.AdvanceRotation(0.016)
			store.ToggleRotationLock()
		}()
		go func() {
			defer wg.Done()
			_ = store.SetDevicePosition(model.GeoCoordinate{Latitude: float64(i), Longitude: float64(i)})
			store.UpdateSatellites([]model.Satellite{{ID: i, Position: model.Position{X: 5}}})
		}()
	}
	wg.Wait()
}

func TestEventSeqOrdersConcurrentChanges(t *testing.T) {
	store := newStore(t)
	if err := store.SetDevicePosition(model.GeoCoordinate{Latitude: 0, Longitude: 0}); err != nil {
		t.Fatalf("SetDevicePosition: %v", err)
	}

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var latest Event
	store.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if seen[e.Seq] {
			t.Errorf("duplicate seq %d", e.Seq)
		}
		seen[e.Seq] = true
		if e.Seq != e.Scene.Seq {
			t.Errorf("event seq %d, scene seq %d", e.Seq, e.Scene.Seq)
		}
		if e.Seq > latest.Seq {
			latest = e
		}
	})

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			store.AdvanceRotation(0.1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			store.UpdateSatellites(make([]model.Satellite, i%4+1))
		}
	}()
	wg.Wait()

	final := store.Snapshot()
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2*n {
		t.Fatalf("events = %d, want %d", len(seen), 2*n)
	}
	if latest.Seq != final.Seq {
		t.Fatalf("latest event seq = %d, store seq = %d", latest.Seq, final.Seq)
	}
	if latest.Scene.Rotation != final.Rotation || len(latest.Scene.Satellites) != len(final.Satellites) {
		t.Fatalf("highest-seq event scene differs from the store's final scene")
	}
}
