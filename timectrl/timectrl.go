package timectrl

import (
	"sync"
	"time"
)

// DefaultTick is one frame of a 60 Hz display.
const DefaultTick = time.Second / 60

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime steps by the wall-clock time measured between ticks.
	RealTime Mode = iota
	// Accelerated steps by exactly Tick on every tick, however late it fires.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// ParseMode maps "realtime"/"accelerated" to a Mode. Unknown values fall
// back to RealTime and report false.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "realtime", "real-time", "":
		return RealTime, true
	case "accelerated":
		return Accelerated, true
	default:
		return RealTime, false
	}
}

// Listener is called once per frame with the simulation time and the
// elapsed time since the previous frame.
type Listener func(simTime time.Time, delta time.Duration)

// TimeController is the animation driver: it owns the timing source and
// invokes listeners once per frame. Listeners only ever see elapsed time.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	frames      uint64

	listeners []Listener
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewTimeController constructs a controller. A non-positive tick falls back
// to DefaultTick.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
		stop:        make(chan struct{}),
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves simulation time without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// Frames returns the number of frames delivered so far.
func (tc *TimeController) Frames() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.frames
}

// AddListener registers a callback invoked on every frame.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Stop ends a running controller. It is safe to call more than once.
func (tc *TimeController) Stop() {
	tc.stopOnce.Do(func() { close(tc.stop) })
}

// Start runs the controller for the given amount of simulation time in a
// separate goroutine; a non-positive duration runs until Stop. It returns a
// channel that is closed when the controller finishes.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.currentTime
		tc.mu.Unlock()

		elapsed := time.Duration(0)
		last := time.Now()

		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			var now time.Time
			select {
			case <-tc.stop:
				return
			case now = <-ticker.C:
			}

			delta := tc.Tick
			if tc.Mode == RealTime {
				delta = now.Sub(last)
			}
			last = now
			if duration > 0 && elapsed+delta > duration {
				delta = duration - elapsed
			}
			simTime = simTime.Add(delta)
			elapsed += delta

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.frames++
			listeners := append([]Listener(nil), tc.listeners...)
			tc.mu.Unlock()

			for _, fn := range listeners {
				fn(simTime, delta)
			}
		}
	}()
	return done
}
