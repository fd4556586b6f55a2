package behavior

import (
	"cmp"
	"slices"
	"time"
)

// newestFirst orders records by ingestion time descending, then id
// descending.
func newestFirst(a, b Record) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// SummarizeSessions groups records by session. The result is ordered by last
// activity descending, then session id ascending. Input order does not
// matter.
func SummarizeSessions(records []Record) []SessionSummary {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b Record) int { return newestFirst(b, a) })

	index := make(map[string]int)
	var out []SessionSummary
	for _, r := range sorted {
		i, ok := index[r.SessionID]
		if !ok {
			i = len(out)
			index[r.SessionID] = i
			out = append(out, SessionSummary{
				SessionID:    r.SessionID,
				SessionStart: r.SessionStart,
				Fingerprint:  r.Fingerprint,
			})
		}
		s := &out[i]
		if r.Timestamp.After(s.LastActivity) {
			s.LastActivity = r.Timestamp
		}
		s.MouseEventsCount += int64(len(r.MouseEvents))
		s.ClickEventsCount += int64(len(r.ClickEvents))
		s.ScrollEventsCount += int64(len(r.ScrollEvents))
		s.KeyEventsCount += int64(len(r.KeyEvents))
		s.PageViewsCount += int64(len(r.PageViews))
		s.TotalRecords++
	}

	slices.SortFunc(out, func(a, b SessionSummary) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return out
}

// SumEventCounts totals the events of at most sample of the newest records
// ingested at or after since. A non-positive sample means no limit.
func SumEventCounts(records []Record, since time.Time, sample int) EventCounts {
	recent := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(since) {
			recent = append(recent, r)
		}
	}
	slices.SortFunc(recent, newestFirst)
	if sample > 0 && len(recent) > sample {
		recent = recent[:sample]
	}

	var c EventCounts
	for _, r := range recent {
		c.add(r)
	}
	return c
}

func window[T any](items []T, p Page) []T {
	if p.Offset < 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Limit < end-p.Offset {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}
