package telemetry

import "time"

// NavigationType tags how a page view came about.
type NavigationType string

const (
	NavigationInitial      NavigationType = "initial"
	NavigationSPA          NavigationType = "spa_navigation"
	NavigationPushState    NavigationType = "spa_pushstate"
	NavigationReplaceState NavigationType = "spa_replacestate"
	NavigationPageExit     NavigationType = "page_exit"
	NavigationTabReturn    NavigationType = "tab_return"
)

// Valid reports whether t is one of the known navigation types.
func (t NavigationType) Valid() bool {
	switch t {
	case NavigationInitial, NavigationSPA, NavigationPushState,
		NavigationReplaceState, NavigationPageExit, NavigationTabReturn:
		return true
	}
	return false
}

// MouseEvent is a sampled pointer position.
type MouseEvent struct {
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// ClickTarget describes the element that received a click.
type ClickTarget struct {
	Tag   string `json:"tag" bson:"tag"`
	ID    string `json:"id,omitempty" bson:"id,omitempty"`
	Class string `json:"class,omitempty" bson:"class,omitempty"`
	Text  string `json:"text,omitempty" bson:"text,omitempty"` // leading snippet of the element text
}

// ClickEvent is a pointer button press.
type ClickEvent struct {
	X         float64     `json:"x" bson:"x"`
	Y         float64     `json:"y" bson:"y"`
	Button    int         `json:"button" bson:"button"`
	Target    ClickTarget `json:"target" bson:"target"`
	Timestamp int64       `json:"timestamp" bson:"timestamp"`
}

// ScrollEvent is a debounced scroll position along with the viewport and
// document dimensions at that moment.
type ScrollEvent struct {
	ScrollX        float64 `json:"scroll_x" bson:"scroll_x"`
	ScrollY        float64 `json:"scroll_y" bson:"scroll_y"`
	ViewportWidth  int     `json:"viewport_width" bson:"viewport_width"`
	ViewportHeight int     `json:"viewport_height" bson:"viewport_height"`
	DocumentWidth  int     `json:"document_width" bson:"document_width"`
	DocumentHeight int     `json:"document_height" bson:"document_height"`
	Timestamp      int64   `json:"timestamp" bson:"timestamp"`
}

// KeyEvent records the timing of a key press. It must never grow a field
// holding the key identity, code or typed character.
type KeyEvent struct {
	Timestamp int64 `json:"timestamp" bson:"timestamp"`
	CtrlKey   bool  `json:"ctrl_key" bson:"ctrl_key"`
	ShiftKey  bool  `json:"shift_key" bson:"shift_key"`
	AltKey    bool  `json:"alt_key" bson:"alt_key"`
	MetaKey   bool  `json:"meta_key" bson:"meta_key"`
	Location  int   `json:"location" bson:"location"` // 0 standard, 1 left, 2 right, 3 numpad
}

// PageView is a navigation or page lifecycle marker.
type PageView struct {
	Path      string         `json:"path" bson:"path"`
	Title     string         `json:"title" bson:"title"`
	Referrer  string         `json:"referrer" bson:"referrer"`
	Timestamp int64          `json:"timestamp" bson:"timestamp"`
	Type      NavigationType `json:"type" bson:"type"`
}

// Fingerprint is the device snapshot collected once per page load.
// Extra holds client-only attributes that the service does not persist.
type Fingerprint struct {
	UserAgent      string            `json:"user_agent"`
	Language       string            `json:"language"`
	Platform       string            `json:"platform"`
	ScreenWidth    int               `json:"screen_width"`
	ScreenHeight   int               `json:"screen_height"`
	ColorDepth     int               `json:"color_depth"`
	PixelRatio     float64           `json:"pixel_ratio"`
	Timezone       string            `json:"timezone"`
	MaxTouchPoints int               `json:"max_touch_points"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Batch is the payload of a single tracker flush.
type Batch struct {
	SessionID    string        `json:"session_id"`
	SessionStart int64         `json:"session_start"`
	MouseEvents  []MouseEvent  `json:"mouse_events"`
	ClickEvents  []ClickEvent  `json:"click_events"`
	ScrollEvents []ScrollEvent `json:"scroll_events"`
	KeyEvents    []KeyEvent    `json:"key_events"`
	PageViews    []PageView    `json:"page_views"`
	Fingerprint  Fingerprint   `json:"fingerprint"`
	CurrentURL   string        `json:"current_url"`
	CollectedAt  int64         `json:"collected_at"`
}

// EventCount returns the total number of events across all categories.
func (b Batch) EventCount() int {
	return len(b.MouseEvents) + len(b.ClickEvents) + len(b.ScrollEvents) +
		len(b.KeyEvents) + len(b.PageViews)
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
