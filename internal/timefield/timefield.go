// Package timefield resolves instants out of records whose date fields are
// named inconsistently across endpoints and schema generations. Selection is
// strictly first-match over a prioritized field list; planned fields outrank
// generic fallbacks, so the chains below must not be reordered.
package timefield

import (
	"time"

	"opsboard/internal/status"
)

// Priority chains per concept. Earlier names win outright even when later
// fields are also present.
var (
	StartFields = []string{
		"startPlanned", "startAt", "startDate", "beginAt", "beginDate", "start", "date",
	}
	EndFields = []string{
		"endPlanned", "dueAt", "dueDate", "endAt", "endDate", "targetAt", "targetDate", "date",
	}
	ActualEndFields = []string{
		"actualEndAt", "completedAt", "endActual",
	}
	CreatedFields = []string{
		"createdAt", "created_at", "created",
	}
)

// Resolve returns the first present, non-empty, non-null candidate as an
// instant, or nil. Never "most recent", never merged.
func Resolve(rec map[string]any, fields []string) *time.Time {
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		if t := coerce(v); t != nil {
			return t
		}
	}
	return nil
}

// ResolveOccurrence resolves the single instant a milestone is pinned to.
// Finished milestones prefer their actual completion; everything else falls
// back through due → start → createdAt.
func ResolveOccurrence(rec map[string]any, st status.Status) *time.Time {
	if st == status.Finished {
		if t := Resolve(rec, ActualEndFields); t != nil {
			return t
		}
	}
	if t := Resolve(rec, EndFields); t != nil {
		return t
	}
	if t := Resolve(rec, StartFields); t != nil {
		return t
	}
	return Resolve(rec, CreatedFields)
}

// FloorDay drops the time-of-day component; all interval and range
// comparisons work on local midnights.
func FloorDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// coerce turns the value shapes the endpoints actually produce (time.Time
// from pgx, RFC3339 or date-only strings and epoch-millis numbers from JSON)
// into an instant. Unparseable values resolve to nil so the next candidate
// field gets a chance.
func coerce(v any) *time.Time {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return nil
		}
		t := val
		return &t
	case *time.Time:
		if val == nil || val.IsZero() {
			return nil
		}
		t := *val
		return &t
	case string:
		if val == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, val, time.Local); err == nil {
				return &t
			}
		}
		return nil
	case float64:
		if val == 0 {
			return nil
		}
		t := time.UnixMilli(int64(val))
		return &t
	case int64:
		if val == 0 {
			return nil
		}
		t := time.UnixMilli(val)
		return &t
	default:
		return nil
	}
}
