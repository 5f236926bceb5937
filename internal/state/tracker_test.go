package state

import (
	"sync"
	"testing"
)

func TestApplyAndGet(t *testing.T) {
	tr := NewTracker()

	if got := tr.Get("tv", AttrPower); got != "" {
		t.Errorf("unknown device Get() = %q, want empty", got)
	}

	tr.Apply("tv", AttrPower, "on")
	if got := tr.Get("tv", AttrPower); got != "on" {
		t.Errorf("Get() = %q, want \"on\"", got)
	}

	tr.Apply("tv", AttrInput, "hdmi1")
	if got := tr.Get("tv", AttrInput); got != "hdmi1" {
		t.Errorf("Get() = %q, want \"hdmi1\"", got)
	}
}

func TestTogglePower(t *testing.T) {
	tr := NewTracker()

	// Unknown device is assumed off; first toggle turns it on.
	tr.TogglePower("amp")
	if got := tr.Get("amp", AttrPower); got != "on" {
		t.Errorf("after first toggle Get() = %q, want \"on\"", got)
	}
	tr.TogglePower("amp")
	if got := tr.Get("amp", AttrPower); got != "off" {
		t.Errorf("after second toggle Get() = %q, want \"off\"", got)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Apply("tv", AttrPower, "on")

	snap := tr.Snapshot()
	snap["tv"][AttrPower] = AttrValue{Value: "off"}

	if got := tr.Get("tv", AttrPower); got != "on" {
		t.Error("mutating a snapshot changed tracker state")
	}
}

func TestSceneLifecycle(t *testing.T) {
	tr := NewTracker()

	name, status := tr.ActiveScene()
	if name != "" || status != SceneInactive {
		t.Errorf("fresh tracker scene = (%q, %s), want (\"\", inactive)", name, status)
	}

	tr.SetScene("movie-night", SceneStarting)
	tr.SetScene("movie-night", SceneActive)
	name, status = tr.ActiveScene()
	if name != "movie-night" || status != SceneActive {
		t.Errorf("scene = (%q, %s), want (movie-night, active)", name, status)
	}

	tr.ClearScene()
	name, status = tr.ActiveScene()
	if name != "" || status != SceneInactive {
		t.Errorf("after ClearScene = (%q, %s), want (\"\", inactive)", name, status)
	}
}

// Status requests arrive on HTTP handler goroutines while the orchestrator
// applies scene steps; the tracker must tolerate that. Run with -race.
func TestConcurrentReadersAndWriter(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			tr.SetScene("movie-night", SceneStarting)
			tr.Apply("tv", AttrPower, "on")
			tr.TogglePower("amp")
			tr.SetScene("movie-night", SceneActive)
			tr.ClearScene()
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				tr.ActiveScene()
				tr.Get("tv", AttrPower)
				tr.Snapshot()
			}
		}()
	}

	wg.Wait()
}
