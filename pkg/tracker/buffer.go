package tracker

import (
	"slices"

	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
)

// buffer holds the five event queues. It is not safe for concurrent use;
// Tracker guards it.
type buffer struct {
	mouse  []telemetry.MouseEvent
	clicks []telemetry.ClickEvent
	scroll []telemetry.ScrollEvent
	keys   []telemetry.KeyEvent
	pages  []telemetry.PageView

	maxEvents int
	soft      Limits
}

func newBuffer(maxEvents int, soft Limits) *buffer {
	return &buffer{maxEvents: maxEvents, soft: soft}
}

func (b *buffer) addMouse(e telemetry.MouseEvent) {
	b.mouse = appendCapped(b.mouse, e, b.maxEvents, b.soft.Mouse)
}

func (b *buffer) addClick(e telemetry.ClickEvent) {
	b.clicks = appendCapped(b.clicks, e, b.maxEvents, b.soft.Click)
}

func (b *buffer) addScroll(e telemetry.ScrollEvent) {
	b.scroll = appendCapped(b.scroll, e, b.maxEvents, b.soft.Scroll)
}

func (b *buffer) addKey(e telemetry.KeyEvent) {
	b.keys = appendCapped(b.keys, e, b.maxEvents, b.soft.Key)
}

func (b *buffer) addPage(e telemetry.PageView) {
	b.pages = appendCapped(b.pages, e, b.maxEvents, b.soft.PageView)
}

func (b *buffer) empty() bool {
	return len(b.mouse) == 0 && len(b.clicks) == 0 && len(b.scroll) == 0 &&
		len(b.keys) == 0 && len(b.pages) == 0
}

// snapshot copies every queue into batch. The copies share no backing array
// with the buffer, so later trims cannot affect an in-flight payload.
func (b *buffer) snapshot(batch *telemetry.Batch) {
	batch.MouseEvents = cloneOrEmpty(b.mouse)
	batch.ClickEvents = cloneOrEmpty(b.clicks)
	batch.ScrollEvents = cloneOrEmpty(b.scroll)
	batch.KeyEvents = cloneOrEmpty(b.keys)
	batch.PageViews = cloneOrEmpty(b.pages)
}

// trim keeps at most floors elements per queue, newest last.
func (b *buffer) trim(floors Limits) {
	b.mouse = keepTail(b.mouse, floors.Mouse)
	b.clicks = keepTail(b.clicks, floors.Click)
	b.scroll = keepTail(b.scroll, floors.Scroll)
	b.keys = keepTail(b.keys, floors.Key)
	b.pages = keepTail(b.pages, floors.PageView)
}

func (b *buffer) lengths() Limits {
	return Limits{
		Mouse:    len(b.mouse),
		Click:    len(b.clicks),
		Scroll:   len(b.scroll),
		Key:      len(b.keys),
		PageView: len(b.pages),
	}
}

func appendCapped[T any](q []T, e T, limit, floor int) []T {
	q = append(q, e)
	if len(q) > limit {
		q = keepTail(q, floor)
	}
	return q
}

// keepTail returns the last n elements in a fresh slice so the dropped head
// can be collected.
func keepTail[T any](q []T, n int) []T {
	if len(q) <= n {
		return q
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, q[len(q)-n:])
	return out
}

// cloneOrEmpty never returns nil so payload arrays encode as [] rather than null.
func cloneOrEmpty[T any](q []T) []T {
	if len(q) == 0 {
		return []T{}
	}
	return slices.Clone(q)
}
