package behavior

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/behaviortrace/pkg/pg"
)

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps records in the behavior_data table created by
// Migrations. Event arrays are stored as JSONB.
type PostgresStore struct {
	db PgxPool
}

func NewPostgresStore(db PgxPool) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, session_id, session_start, mouse_events, click_events,
	scroll_events, key_events, page_views, fingerprint, current_url, collected_at,
	"timestamp", ip_address, user_agent, client, request_fingerprint`

const insertRecordSQL = `INSERT INTO behavior_data (` + recordColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func (s *PostgresStore) Insert(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	_, err := s.db.Exec(ctx, insertRecordSQL,
		r.ID, r.SessionID, r.SessionStart,
		orEmpty(r.MouseEvents), orEmpty(r.ClickEvents), orEmpty(r.ScrollEvents),
		orEmpty(r.KeyEvents), orEmpty(r.PageViews),
		r.Fingerprint, r.CurrentURL, r.CollectedAt,
		r.Timestamp, r.IPAddress, r.UserAgent, r.Client, r.RequestFingerprint,
	)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("postgres: record %s already exists: %w", r.ID, err)
	}
	return err
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(
		&r.ID, &r.SessionID, &r.SessionStart,
		&r.MouseEvents, &r.ClickEvents, &r.ScrollEvents, &r.KeyEvents, &r.PageViews,
		&r.Fingerprint, &r.CurrentURL, &r.CollectedAt,
		&r.Timestamp, &r.IPAddress, &r.UserAgent, &r.Client, &r.RequestFingerprint,
	)
	r.Timestamp = r.Timestamp.UTC()
	return r, err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM behavior_data WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

// where renders f as a WHERE clause and its arguments, numbering
// placeholders from 1.
func where(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SessionID != "" {
		args = append(args, f.SessionID)
		conds = append(conds, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf(`"timestamp" >= $%d`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// limitClause appends LIMIT and OFFSET placeholders after args.
func limitClause(p Page, args []any) (string, []any) {
	limit := any(nil) // LIMIT NULL means no limit
	if p.Limit > 0 {
		limit = p.Limit
	}
	args = append(args, limit, p.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func (s *PostgresStore) List(ctx context.Context, f Filter, p Page) ([]Record, error) {
	clause, args := where(f)
	paging, args := limitClause(p, args)

	rows, err := s.db.Query(ctx, `SELECT `+recordColumns+` FROM behavior_data`+clause+
		` ORDER BY "timestamp" DESC, id DESC`+paging, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, f Filter) (int64, error) {
	clause, args := where(f)
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM behavior_data`+clause, args...).Scan(&n)
	return n, err
}

const sessionsSQL = `SELECT session_id,
	(array_agg(session_start ORDER BY "timestamp" ASC, id ASC))[1],
	(array_agg(fingerprint ORDER BY "timestamp" ASC, id ASC))[1],
	max("timestamp") AS last_activity,
	sum(jsonb_array_length(mouse_events)),
	sum(jsonb_array_length(click_events)),
	sum(jsonb_array_length(scroll_events)),
	sum(jsonb_array_length(key_events)),
	sum(jsonb_array_length(page_views)),
	count(*)
FROM behavior_data
GROUP BY session_id
ORDER BY last_activity DESC, session_id ASC`

func (s *PostgresStore) Sessions(ctx context.Context, p Page) ([]SessionSummary, error) {
	paging, args := limitClause(p, nil)
	rows, err := s.db.Query(ctx, sessionsSQL+paging, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(
			&ss.SessionID, &ss.SessionStart, &ss.Fingerprint, &ss.LastActivity,
			&ss.MouseEventsCount, &ss.ClickEventsCount, &ss.ScrollEventsCount,
			&ss.KeyEventsCount, &ss.PageViewsCount, &ss.TotalRecords,
		); err != nil {
			return nil, err
		}
		ss.LastActivity = ss.LastActivity.UTC()
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(DISTINCT session_id) FROM behavior_data`).Scan(&n)
	return n, err
}

const eventCountsSQL = `SELECT
	COALESCE(sum(jsonb_array_length(mouse_events)), 0),
	COALESCE(sum(jsonb_array_length(click_events)), 0),
	COALESCE(sum(jsonb_array_length(scroll_events)), 0),
	COALESCE(sum(jsonb_array_length(key_events)), 0),
	COALESCE(sum(jsonb_array_length(page_views)), 0)
FROM (
	SELECT mouse_events, click_events, scroll_events, key_events, page_views
	FROM behavior_data
	WHERE "timestamp" >= $1
	ORDER BY "timestamp" DESC, id DESC
	LIMIT $2
) recent`

func (s *PostgresStore) EventCounts(ctx context.Context, since time.Time, sample int) (EventCounts, error) {
	limit := any(nil)
	if sample > 0 {
		limit = sample
	}
	var c EventCounts
	err := s.db.QueryRow(ctx, eventCountsSQL, since, limit).Scan(
		&c.MouseEvents, &c.ClickEvents, &c.ScrollEvents, &c.KeyEvents, &c.PageViews,
	)
	return c, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return pg.Healthcheck(s.db)(ctx)
}
