package tracker

import "time"

// Limits holds one length per event category.
type Limits struct {
	Mouse    int
	Click    int
	Scroll   int
	Key      int
	PageView int
}

// Config controls buffering and flush behaviour. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// BatchInterval is the period of the flush timer.
	BatchInterval time.Duration
	// MaxEvents is the per-category soft cap. Exceeding it drops the oldest
	// events down to SoftFloors.
	MaxEvents int
	// MouseThrottle is the minimum spacing between two retained mouse events.
	MouseThrottle time.Duration
	// ScrollDebounce is the quiet window after which the last scroll
	// position is recorded.
	ScrollDebounce time.Duration
	// SoftFloors are the lengths kept when a queue overflows MaxEvents.
	SoftFloors Limits
	// FlushFloors are the lengths kept after every flush attempt.
	FlushFloors Limits
	// ClickTextLimit caps the click target text snippet, in runes.
	ClickTextLimit int
}

// DefaultConfig returns the standard tracker configuration.
func DefaultConfig() Config {
	return Config{
		BatchInterval:  10 * time.Second,
		MaxEvents:      1000,
		MouseThrottle:  50 * time.Millisecond,
		ScrollDebounce: 100 * time.Millisecond,
		SoftFloors:     Limits{Mouse: 500, Click: 200, Scroll: 100, Key: 300, PageView: 100},
		FlushFloors:    Limits{Mouse: 50, Click: 20, Scroll: 10, Key: 30, PageView: 5},
		ClickTextLimit: 50,
	}
}

func (c Config) validate() error {
	if c.BatchInterval <= 0 || c.MaxEvents <= 0 {
		return ErrInvalidConfig
	}
	if c.MouseThrottle < 0 || c.ScrollDebounce < 0 || c.ClickTextLimit < 0 {
		return ErrInvalidConfig
	}
	for _, v := range []int{
		c.SoftFloors.Mouse, c.SoftFloors.Click, c.SoftFloors.Scroll, c.SoftFloors.Key, c.SoftFloors.PageView,
		c.FlushFloors.Mouse, c.FlushFloors.Click, c.FlushFloors.Scroll, c.FlushFloors.Key, c.FlushFloors.PageView,
	} {
		if v < 0 || v > c.MaxEvents {
			return ErrInvalidConfig
		}
	}
	return nil
}
