package timectrl

import (
	"sync"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	done := tc.Start(15 * time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if got := tc.Frames(); got != 3 {
		t.Fatalf("Frames() = %d, want 3", got)
	}
}

func TestTimeControllerListenerDeltasSumToDuration(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 2*time.Millisecond, RealTime)

	var mu sync.Mutex
	var total time.Duration
	var last time.Time
	tc.AddListener(func(simTime time.Time, delta time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		if delta <= 0 {
			t.Errorf("non-positive delta %v", delta)
		}
		total += delta
		last = simTime
	})

	<-tc.Start(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if total != 20*time.Millisecond {
		t.Fatalf("sum of deltas = %v, want 20ms", total)
	}
	if !last.Equal(start.Add(total)) {
		t.Fatalf("last simTime = %v, want %v", last, start.Add(total))
	}
}

func TestTimeControllerStop(t *testing.T) {
	tc := NewTimeController(time.Now(), time.Millisecond, Accelerated)
	done := tc.Start(0)

	time.Sleep(5 * time.Millisecond)
	tc.Stop()
	tc.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop")
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("accelerated"); !ok || m != Accelerated {
		t.Fatalf("ParseMode(accelerated) = %v, %v", m, ok)
	}
	if m, ok := ParseMode("warp"); ok || m != RealTime {
		t.Fatalf("ParseMode(warp) = %v, %v, want RealTime, false", m, ok)
	}
}
