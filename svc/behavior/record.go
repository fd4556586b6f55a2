package behavior

import (
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/useragent"
)

// Fingerprint is the stored part of the client device snapshot.
type Fingerprint struct {
	UserAgent      string  `json:"user_agent" bson:"user_agent"`
	Language       string  `json:"language" bson:"language"`
	Platform       string  `json:"platform" bson:"platform"`
	ScreenWidth    int     `json:"screen_width" bson:"screen_width"`
	ScreenHeight   int     `json:"screen_height" bson:"screen_height"`
	ColorDepth     int     `json:"color_depth" bson:"color_depth"`
	PixelRatio     float64 `json:"pixel_ratio" bson:"pixel_ratio"`
	Timezone       string  `json:"timezone" bson:"timezone"`
	MaxTouchPoints int     `json:"max_touch_points" bson:"max_touch_points"`
}

func fingerprintFrom(fp telemetry.Fingerprint) Fingerprint {
	return Fingerprint{
		UserAgent:      fp.UserAgent,
		Language:       fp.Language,
		Platform:       fp.Platform,
		ScreenWidth:    fp.ScreenWidth,
		ScreenHeight:   fp.ScreenHeight,
		ColorDepth:     fp.ColorDepth,
		PixelRatio:     fp.PixelRatio,
		Timezone:       fp.Timezone,
		MaxTouchPoints: fp.MaxTouchPoints,
	}
}

// Record is one stored tracker flush.
type Record struct {
	ID           string                  `json:"id" bson:"_id"`
	SessionID    string                  `json:"session_id" bson:"session_id"`
	SessionStart int64                   `json:"session_start" bson:"session_start"`
	MouseEvents  []telemetry.MouseEvent  `json:"mouse_events" bson:"mouse_events"`
	ClickEvents  []telemetry.ClickEvent  `json:"click_events" bson:"click_events"`
	ScrollEvents []telemetry.ScrollEvent `json:"scroll_events" bson:"scroll_events"`
	KeyEvents    []telemetry.KeyEvent    `json:"key_events" bson:"key_events"`
	PageViews    []telemetry.PageView    `json:"page_views" bson:"page_views"`
	Fingerprint  Fingerprint             `json:"fingerprint" bson:"fingerprint"`
	CurrentURL   string                  `json:"current_url" bson:"current_url"`
	CollectedAt  int64                   `json:"collected_at" bson:"collected_at"`

	// Timestamp is the ingestion time set by the server.
	Timestamp          time.Time         `json:"timestamp" bson:"timestamp"`
	IPAddress          string            `json:"ip_address" bson:"ip_address"`
	UserAgent          string            `json:"user_agent" bson:"user_agent"`
	Client             useragent.Summary `json:"client" bson:"client"`
	RequestFingerprint string            `json:"request_fingerprint" bson:"request_fingerprint"`
}

// RequestMeta is what the server knows about the caller of a collect
// request.
type RequestMeta struct {
	IPAddress   string
	UserAgent   string
	Fingerprint string
}

func newRecord(id string, b telemetry.Batch, meta RequestMeta, now time.Time) Record {
	return Record{
		ID:                 id,
		SessionID:          b.SessionID,
		SessionStart:       b.SessionStart,
		MouseEvents:        orEmpty(b.MouseEvents),
		ClickEvents:        orEmpty(b.ClickEvents),
		ScrollEvents:       orEmpty(b.ScrollEvents),
		KeyEvents:          orEmpty(b.KeyEvents),
		PageViews:          orEmpty(b.PageViews),
		Fingerprint:        fingerprintFrom(b.Fingerprint),
		CurrentURL:         b.CurrentURL,
		CollectedAt:        b.CollectedAt,
		Timestamp:          now.UTC().Truncate(time.Millisecond),
		IPAddress:          meta.IPAddress,
		UserAgent:          meta.UserAgent,
		Client:             useragent.Parse(meta.UserAgent),
		RequestFingerprint: meta.Fingerprint,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EventCounts holds per category event totals.
type EventCounts struct {
	MouseEvents  int64 `json:"mouse_events" bson:"mouse_events"`
	ClickEvents  int64 `json:"click_events" bson:"click_events"`
	ScrollEvents int64 `json:"scroll_events" bson:"scroll_events"`
	KeyEvents    int64 `json:"key_events" bson:"key_events"`
	PageViews    int64 `json:"page_views" bson:"page_views"`
}

func (c *EventCounts) add(r Record) {
	c.MouseEvents += int64(len(r.MouseEvents))
	c.ClickEvents += int64(len(r.ClickEvents))
	c.ScrollEvents += int64(len(r.ScrollEvents))
	c.KeyEvents += int64(len(r.KeyEvents))
	c.PageViews += int64(len(r.PageViews))
}

// SessionSummary aggregates every record of one session. SessionStart and
// Fingerprint come from the earliest ingested record.
type SessionSummary struct {
	SessionID         string      `json:"session_id" bson:"_id"`
	SessionStart      int64       `json:"session_start" bson:"session_start"`
	Fingerprint       Fingerprint `json:"fingerprint" bson:"fingerprint"`
	LastActivity      time.Time   `json:"last_activity" bson:"last_activity"`
	MouseEventsCount  int64       `json:"mouse_events_count" bson:"mouse_events_count"`
	ClickEventsCount  int64       `json:"click_events_count" bson:"click_events_count"`
	ScrollEventsCount int64       `json:"scroll_events_count" bson:"scroll_events_count"`
	KeyEventsCount    int64       `json:"key_events_count" bson:"key_events_count"`
	PageViewsCount    int64       `json:"page_views_count" bson:"page_views_count"`
	TotalRecords      int64       `json:"total_records" bson:"total_records"`
}

// Stats is the dashboard overview.
type Stats struct {
	TotalRecords     int64       `json:"total_records"`
	TotalSessions    int64       `json:"total_sessions"`
	RecentRecords24h int64       `json:"recent_records_24h"`
	EventStats       EventCounts `json:"event_stats"`
	// EventStatsSampled is always true: EventStats covers at most
	// EventStatsSampleLimit of the most recent records in the window.
	EventStatsSampled     bool `json:"event_stats_sampled"`
	EventStatsSampleLimit int  `json:"event_stats_sample_limit"`
}
