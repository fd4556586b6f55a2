package tracker

import (
	"encoding/json"
	"log/slog"
	"maps"
	"math"
	"net/url"
	"sync"

	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
)

// ClickInput is a raw pointer press as reported by the page.
type ClickInput struct {
	X, Y   float64
	Button int
	Tag    string
	ID     string
	Class  string
	Text   string
}

// ScrollInput is a raw scroll position with the current layout metrics.
type ScrollInput struct {
	ScrollX, ScrollY float64
	ViewportWidth    int
	ViewportHeight   int
	DocumentWidth    int
	DocumentHeight   int
}

// KeyInput is a key press reduced to modifier flags and key location.
// It has no field for the key itself.
type KeyInput struct {
	Ctrl, Shift, Alt, Meta bool
	Location               int
}

// Tracker buffers events for one page and flushes them periodically.
type Tracker struct {
	cfg     Config
	clock   clock.Clock
	log     *slog.Logger
	tx      *Transmitter
	storage SessionStorage
	source  Source

	session     Session
	fingerprint telemetry.Fingerprint

	mu       sync.Mutex
	buf      *buffer
	url      string
	title    string
	referrer string
	hidden   bool

	lastMouseAt int64
	hasMouse    bool

	pendingScroll *ScrollInput
	scrollGen     uint64
	scrollTimer   clock.Timer

	flushTimer clock.Timer
	started    bool
	stopped    bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects the time source used for timestamps and timers.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger for non-fatal collection and delivery faults.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = logger.OrNoop(l) }
}

// WithSessionStorage sets the tab-scoped storage holding the session token.
func WithSessionStorage(s SessionStorage) Option {
	return func(t *Tracker) {
		if s != nil {
			t.storage = s
		}
	}
}

// WithFingerprintSource sets where device attributes are read from.
func WithFingerprintSource(s Source) Option {
	return func(t *Tracker) { t.source = s }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(t *Tracker) { t.cfg = cfg }
}

// WithPage sets the page the tracker starts on.
func WithPage(pageURL, title, referrer string) Option {
	return func(t *Tracker) {
		t.url = pageURL
		t.title = title
		t.referrer = referrer
	}
}

// New builds a tracker, loading or creating the session and collecting the
// fingerprint. Timers do not run until Start.
func New(tx *Transmitter, opts ...Option) (*Tracker, error) {
	if tx == nil {
		return nil, ErrNoTransport
	}

	t := &Tracker{
		cfg:   DefaultConfig(),
		clock: clock.Real(),
		log:   logger.Noop(),
		tx:    tx,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.cfg.validate(); err != nil {
		return nil, err
	}
	if t.storage == nil {
		t.storage = NewMemorySessionStorage()
	}

	session, err := LoadSession(t.storage, t.clock.Now())
	if err != nil {
		t.log.Warn("session storage write failed, using in-memory session",
			logger.Component("tracker"),
			logger.Error(err),
		)
	}
	t.session = session
	t.fingerprint = CollectFingerprint(t.source)
	t.buf = newBuffer(t.cfg.MaxEvents, t.cfg.SoftFloors)
	return t, nil
}

// Start records the initial page view and starts the flush timer. Calling it
// again, or after Stop, does nothing.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.stopped {
		return
	}
	t.started = true
	t.addPageLocked(telemetry.NavigationInitial)
	t.scheduleLocked()

	t.log.Debug("tracker started",
		logger.Component("tracker"),
		logger.SessionID(t.session.ID),
	)
}

// Stop cancels the flush timer and any pending scroll. Buffered events are
// kept but no further ticks fire.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	t.stopped = true
	if t.flushTimer != nil {
		t.flushTimer.Stop()
		t.flushTimer = nil
	}
	t.cancelScrollLocked()
}

func (t *Tracker) scheduleLocked() {
	t.flushTimer = t.clock.AfterFunc(t.cfg.BatchInterval, t.tick)
}

func (t *Tracker) tick() {
	t.Flush()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.scheduleLocked()
	}
}

// MouseMove records a pointer position, dropping it when it arrives sooner
// than MouseThrottle after the previously recorded one.
func (t *Tracker) MouseMove(x, y float64) {
	if !finite(x, y) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	now := t.clock.Now().UnixMilli()
	if t.hasMouse && now-t.lastMouseAt < t.cfg.MouseThrottle.Milliseconds() {
		return
	}
	t.lastMouseAt, t.hasMouse = now, true
	t.buf.addMouse(telemetry.MouseEvent{X: x, Y: y, Timestamp: now})
}

// Click records a pointer press. The target text is cut to ClickTextLimit
// runes.
func (t *Tracker) Click(in ClickInput) {
	if !finite(in.X, in.Y) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.buf.addClick(telemetry.ClickEvent{
		X:      in.X,
		Y:      in.Y,
		Button: in.Button,
		Target: telemetry.ClickTarget{
			Tag:   in.Tag,
			ID:    in.ID,
			Class: in.Class,
			Text:  truncateRunes(in.Text, t.cfg.ClickTextLimit),
		},
		Timestamp: t.clock.Now().UnixMilli(),
	})
}

// Scroll schedules a scroll position to be recorded once no further scroll
// arrives for ScrollDebounce. Only the last position of a burst is kept.
func (t *Tracker) Scroll(in ScrollInput) {
	if !finite(in.ScrollX, in.ScrollY) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	t.cancelScrollLocked()
	if t.cfg.ScrollDebounce <= 0 {
		t.addScrollLocked(in)
		return
	}
	t.pendingScroll = &in
	gen := t.scrollGen
	t.scrollTimer = t.clock.AfterFunc(t.cfg.ScrollDebounce, func() { t.commitScroll(gen) })
}

func (t *Tracker) commitScroll(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || gen != t.scrollGen || t.pendingScroll == nil {
		return
	}
	t.addScrollLocked(*t.pendingScroll)
	t.pendingScroll = nil
	t.scrollTimer = nil
}

func (t *Tracker) addScrollLocked(in ScrollInput) {
	t.buf.addScroll(telemetry.ScrollEvent{
		ScrollX:        in.ScrollX,
		ScrollY:        in.ScrollY,
		ViewportWidth:  in.ViewportWidth,
		ViewportHeight: in.ViewportHeight,
		DocumentWidth:  in.DocumentWidth,
		DocumentHeight: in.DocumentHeight,
		Timestamp:      t.clock.Now().UnixMilli(),
	})
}

// cancelScrollLocked invalidates any scheduled scroll commit, including one
// whose timer already fired and is waiting for the lock.
func (t *Tracker) cancelScrollLocked() {
	t.scrollGen++
	t.pendingScroll = nil
	if t.scrollTimer != nil {
		t.scrollTimer.Stop()
		t.scrollTimer = nil
	}
}

// KeyDown records the timing and modifiers of a key press.
func (t *Tracker) KeyDown(in KeyInput) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.buf.addKey(telemetry.KeyEvent{
		Timestamp: t.clock.Now().UnixMilli(),
		CtrlKey:   in.Ctrl,
		ShiftKey:  in.Shift,
		AltKey:    in.Alt,
		MetaKey:   in.Meta,
		Location:  in.Location,
	})
}

// Navigate records an in-page navigation to pageURL. The previous URL becomes
// the referrer of the new page view.
func (t *Tracker) Navigate(kind telemetry.NavigationType, pageURL, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if !kind.Valid() {
		kind = telemetry.NavigationSPA
	}
	t.referrer = t.url
	t.url = pageURL
	if title != "" {
		t.title = title
	}
	t.addPageLocked(kind)
}

// VisibilityChange records a tab_return page view when a hidden tab becomes
// visible again. It never flushes.
func (t *Tracker) VisibilityChange(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if visible && t.hidden {
		t.addPageLocked(telemetry.NavigationTabReturn)
	}
	t.hidden = !visible
}

// Unload records a page_exit page view, flushes, and stops the tracker. A
// scroll still inside its debounce window is dropped. Subsequent calls do
// nothing.
func (t *Tracker) Unload() Method {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return MethodNone
	}
	t.cancelScrollLocked()
	t.addPageLocked(telemetry.NavigationPageExit)
	method := t.flushLocked()
	t.stopLocked()
	t.mu.Unlock()
	return method
}

func (t *Tracker) addPageLocked(kind telemetry.NavigationType) {
	t.buf.addPage(telemetry.PageView{
		Path:      pathOf(t.url),
		Title:     t.title,
		Referrer:  t.referrer,
		Timestamp: t.clock.Now().UnixMilli(),
		Type:      kind,
	})
}

// Flush sends a snapshot of the buffer and trims every queue to its
// post-flush floor whether or not delivery succeeds. With all queues empty
// it does nothing and returns MethodNone.
func (t *Tracker) Flush() Method {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *Tracker) flushLocked() Method {
	if t.buf.empty() {
		return MethodNone
	}

	batch := telemetry.Batch{
		SessionID:    t.session.ID,
		SessionStart: t.session.Start,
		Fingerprint:  t.fingerprint,
		CurrentURL:   t.url,
		CollectedAt:  t.clock.Now().UnixMilli(),
	}
	t.buf.snapshot(&batch)
	defer t.buf.trim(t.cfg.FlushFloors)

	body, err := json.Marshal(batch)
	if err != nil {
		t.log.Error("encode batch",
			logger.Component("tracker"),
			logger.SessionID(t.session.ID),
			logger.Error(err),
		)
		return MethodNone
	}

	method := t.tx.Transmit(body)
	t.log.Debug("batch flushed",
		logger.Component("tracker"),
		logger.SessionID(t.session.ID),
		logger.Count("events", batch.EventCount()),
		slog.String("method", string(method)),
	)
	return method
}

// Session returns the tracking session.
func (t *Tracker) Session() Session { return t.session }

// Fingerprint returns the fingerprint collected at construction.
func (t *Tracker) Fingerprint() telemetry.Fingerprint {
	fp := t.fingerprint
	fp.Extra = maps.Clone(fp.Extra)
	return fp
}

// Lengths returns the current length of every queue.
func (t *Tracker) Lengths() Limits {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.lengths()
}

func pathOf(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		if err == nil && u.Host != "" {
			return "/"
		}
		return raw
	}
	return u.Path
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
