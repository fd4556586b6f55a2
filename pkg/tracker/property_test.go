package tracker_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/tracker"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

// spacedMouseEvents fails when two consecutive events are closer than 50ms.
func spacedMouseEvents(t *rapid.T, events []telemetry.MouseEvent) {
	for i := 1; i < len(events); i++ {
		if gap := events[i].Timestamp - events[i-1].Timestamp; gap < 50 {
			t.Fatalf("mouse events %d and %d only %dms apart", i-1, i, gap)
		}
	}
}

func TestPropertyMouseSpacing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		beacon := &recordingBeacon{}
		fc := clock.Fake(epoch)
		tx, err := tracker.NewTransmitter(beacon, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		tr, err := tracker.New(tx, tracker.WithClock(fc))
		if err != nil {
			t.Fatal(err)
		}

		gaps := rapid.SliceOfN(rapid.IntRange(0, 120), 1, 400).Draw(t, "gaps")
		for _, gap := range gaps {
			fc.Advance(time.Duration(gap) * time.Millisecond)
			tr.MouseMove(1, 1)
		}
		tr.Flush()

		for _, body := range beacon.bodies {
			var b telemetry.Batch
			if err := json.Unmarshal(body, &b); err != nil {
				t.Fatal(err)
			}
			spacedMouseEvents(t, b.MouseEvents)
		}
	})
}

func TestPropertyFlushFloors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fc := clock.Fake(epoch)
		tx, err := tracker.NewTransmitter(&recordingBeacon{refuse: rapid.Bool().Draw(t, "refuse")}, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		tr, err := tracker.New(tx, tracker.WithClock(fc))
		if err != nil {
			t.Fatal(err)
		}
		tr.Start()

		floors := tracker.DefaultConfig().FlushFloors
		actions := rapid.SliceOfN(rapid.IntRange(0, 6), 1, 1500).Draw(t, "actions")
		for _, a := range actions {
			switch a {
			case 0:
				tr.MouseMove(1, 2)
			case 1:
				tr.Click(tracker.ClickInput{Tag: "A"})
			case 2:
				tr.Scroll(tracker.ScrollInput{ScrollY: 5})
			case 3:
				tr.KeyDown(tracker.KeyInput{})
			case 4:
				tr.Navigate(telemetry.NavigationSPA, "https://x.test/a", "A")
			case 5:
				fc.Advance(time.Duration(rapid.IntRange(1, 300).Draw(t, "ms")) * time.Millisecond)
			case 6:
				tr.Flush()
				assertWithinFloors(t, tr.Lengths(), floors)
			}
		}

		tr.Flush()
		assertWithinFloors(t, tr.Lengths(), floors)
	})
}

func assertWithinFloors(t *rapid.T, got, floors tracker.Limits) {
	if got.Mouse > floors.Mouse || got.Click > floors.Click || got.Scroll > floors.Scroll ||
		got.Key > floors.Key || got.PageView > floors.PageView {
		t.Fatalf("lengths %+v exceed post-flush floors %+v", got, floors)
	}
}
