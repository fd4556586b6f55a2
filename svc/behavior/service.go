package behavior

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/behaviortrace/pkg/async"
	"github.com/dmitrymomot/behaviortrace/pkg/clock"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
	"github.com/dmitrymomot/behaviortrace/pkg/validator"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100

	// StatsSampleLimit caps how many recent records feed Stats.EventStats.
	StatsSampleLimit = 1000
	StatsWindow      = 24 * time.Hour

	maxSessionIDLength = 256
	maxEventsPerBatch  = 10000
)

// Service implements ingestion and queries on top of a Store.
type Service struct {
	store Store
	clock clock.Clock
	log   *slog.Logger
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logger.OrNoop(l) }
}

// WithIDGenerator replaces the UUIDv7 record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService panics on a nil store.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("behavior: store cannot be nil")
	}
	s := &Service{
		store: store,
		clock: clock.Real(),
		log:   logger.Noop(),
		newID: newRecordID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Collect validates b and stores it as a new record.
func (s *Service) Collect(ctx context.Context, b telemetry.Batch, meta RequestMeta) (Record, error) {
	if err := validator.Apply(
		validator.Required("session_id", b.SessionID),
		validator.MaxLen("session_id", b.SessionID, maxSessionIDLength),
		validator.MaxItems("mouse_events", b.MouseEvents, maxEventsPerBatch),
		validator.MaxItems("click_events", b.ClickEvents, maxEventsPerBatch),
		validator.MaxItems("scroll_events", b.ScrollEvents, maxEventsPerBatch),
		validator.MaxItems("key_events", b.KeyEvents, maxEventsPerBatch),
		validator.MaxItems("page_views", b.PageViews, maxEventsPerBatch),
	); err != nil {
		return Record{}, err
	}

	rec := newRecord(s.newID(), b, meta, s.clock.Now())
	if err := s.store.Insert(ctx, &rec); err != nil {
		return Record{}, fmt.Errorf("behavior: insert record: %w", err)
	}

	s.log.DebugContext(ctx, "behavior record stored",
		logger.Component("behavior"),
		logger.RecordID(rec.ID),
		logger.SessionID(rec.SessionID),
		logger.Count("events", b.EventCount()),
	)
	return rec, nil
}

// NormalizePage applies the default limit, clamps it to MaxPageLimit and
// treats pages below one as the first page. Pages whose offset would not fit
// in an int are capped, which yields an empty page.
func NormalizePage(page, limit int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	switch {
	case page < 1:
		page = 1
	case page > math.MaxInt/limit:
		page = math.MaxInt / limit
	}
	return page, limit
}

func offset(page, limit int) Page {
	return Page{Offset: (page - 1) * limit, Limit: limit}
}

// List returns one page of records and the number of records matching the
// session filter.
func (s *Service) List(ctx context.Context, sessionID string, page, limit int) ([]Record, int64, error) {
	page, limit = NormalizePage(page, limit)
	f := Filter{SessionID: sessionID}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("behavior: count records: %w", err)
	}
	records, err := s.store.List(ctx, f, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("behavior: list records: %w", err)
	}
	return records, total, nil
}

// Get returns ErrRecordNotFound when id is unknown.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("behavior: get record: %w", err)
	}
	return rec, nil
}

// Sessions returns one page of session summaries and the distinct session
// count.
func (s *Service) Sessions(ctx context.Context, page, limit int) ([]SessionSummary, int64, error) {
	page, limit = NormalizePage(page, limit)

	total, err := s.store.CountSessions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("behavior: count sessions: %w", err)
	}
	sessions, err := s.store.Sessions(ctx, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("behavior: aggregate sessions: %w", err)
	}
	return sessions, total, nil
}

// Stats runs its four store queries concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	since := s.clock.Now().Add(-StatsWindow)

	records := async.Go(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Count(ctx, Filter{})
	})
	recent := async.Go(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Count(ctx, Filter{Since: since})
	})
	sessions := async.Go(ctx, s.store.CountSessions)
	events := async.Go(ctx, func(ctx context.Context) (EventCounts, error) {
		return s.store.EventCounts(ctx, since, StatsSampleLimit)
	})

	counts, err := async.WaitAll(ctx, records, recent, sessions)
	if err != nil {
		return Stats{}, fmt.Errorf("behavior: stats counts: %w", err)
	}
	eventStats, err := events.Await(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("behavior: stats events: %w", err)
	}

	return Stats{
		TotalRecords:          counts[0],
		RecentRecords24h:      counts[1],
		TotalSessions:         counts[2],
		EventStats:            eventStats,
		EventStatsSampled:     true,
		EventStatsSampleLimit: StatsSampleLimit,
	}, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
