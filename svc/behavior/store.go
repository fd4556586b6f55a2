package behavior

import (
	"context"
	"time"
)

// Filter narrows record queries. Zero values match everything.
type Filter struct {
	SessionID string
	// Since keeps records ingested at or after it.
	Since time.Time
}

// Page is an offset window over a sorted result.
type Page struct {
	Offset int
	Limit  int
}

// Store persists records. Lists are ordered by ingestion time descending
// with the record id descending as tie break.
type Store interface {
	Insert(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, f Filter, p Page) ([]Record, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// Sessions returns summaries ordered by last activity descending.
	Sessions(ctx context.Context, p Page) ([]SessionSummary, error)
	CountSessions(ctx context.Context) (int64, error)
	// EventCounts sums event lengths over at most sample of the most recent
	// records ingested at or after since.
	EventCounts(ctx context.Context, since time.Time, sample int) (EventCounts, error)
	Ping(ctx context.Context) error
}
