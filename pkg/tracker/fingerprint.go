package tracker

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
)

// Attribute names a device property read by the fingerprint collector.
type Attribute string

const (
	AttrUserAgent      Attribute = "user_agent"
	AttrLanguage       Attribute = "language"
	AttrPlatform       Attribute = "platform"
	AttrScreenWidth    Attribute = "screen_width"
	AttrScreenHeight   Attribute = "screen_height"
	AttrColorDepth     Attribute = "color_depth"
	AttrPixelRatio     Attribute = "pixel_ratio"
	AttrTimezone       Attribute = "timezone"
	AttrMaxTouchPoints Attribute = "max_touch_points"

	// Client-only attributes, sent in Fingerprint.Extra and not persisted.
	AttrCookieEnabled       Attribute = "cookie_enabled"
	AttrDoNotTrack          Attribute = "do_not_track"
	AttrHardwareConcurrency Attribute = "hardware_concurrency"
	AttrDeviceMemory        Attribute = "device_memory"
)

// Unknown is the default for string attributes that cannot be read.
const Unknown = "unknown"

var extraAttributes = []Attribute{
	AttrCookieEnabled,
	AttrDoNotTrack,
	AttrHardwareConcurrency,
	AttrDeviceMemory,
}

// Source reads device attributes. Implementations may fail or panic for any
// attribute; the collector substitutes defaults.
type Source interface {
	Lookup(attr Attribute) (string, error)
}

// StaticSource is a map-backed Source.
type StaticSource map[Attribute]string

// Lookup implements Source.
func (s StaticSource) Lookup(attr Attribute) (string, error) {
	v, ok := s[attr]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAttributeUnavailable, attr)
	}
	return v, nil
}

// CollectFingerprint reads every attribute from src once. Unreadable strings
// become Unknown and unreadable numbers become 0. It never fails, and a nil
// src yields an all-default fingerprint.
func CollectFingerprint(src Source) telemetry.Fingerprint {
	read := func(attr Attribute) string {
		return lookup(src, attr)
	}

	fp := telemetry.Fingerprint{
		UserAgent:      orUnknown(read(AttrUserAgent)),
		Language:       orUnknown(read(AttrLanguage)),
		Platform:       orUnknown(read(AttrPlatform)),
		ScreenWidth:    atoi(read(AttrScreenWidth)),
		ScreenHeight:   atoi(read(AttrScreenHeight)),
		ColorDepth:     atoi(read(AttrColorDepth)),
		PixelRatio:     atof(read(AttrPixelRatio)),
		Timezone:       orUnknown(read(AttrTimezone)),
		MaxTouchPoints: atoi(read(AttrMaxTouchPoints)),
		Extra:          make(map[string]string, len(extraAttributes)),
	}
	for _, attr := range extraAttributes {
		fp.Extra[string(attr)] = orUnknown(read(attr))
	}
	return fp
}

func lookup(src Source, attr Attribute) (value string) {
	if src == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			value = ""
		}
	}()
	v, err := src.Lookup(attr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
