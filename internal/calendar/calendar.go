// Package calendar computes the visible day grid for the timeline: one
// column per day, month groupings and the today marker. The domain depends
// only on the active filter range and the current date, so callers may
// memoize it on those two inputs alone.
package calendar

import (
	"time"

	"opsboard/internal/timefield"
)

const (
	// Defaults applied per side when only one bound of an explicit range is
	// given.
	defaultBackDays    = 30
	defaultForwardDays = 60
	// Padding around the current month when no range is given at all.
	defaultMonthPad = 15
)

type Day struct {
	Date       time.Time `json:"date"`
	DayOfMonth int       `json:"day_of_month"`
	Weekday    string    `json:"weekday"`
	IsWeekend  bool      `json:"is_weekend"`
}

// MonthSpan groups the contiguous columns sharing one (month, year).
type MonthSpan struct {
	Label       string `json:"label"`
	StartColumn int    `json:"start_column"`
	ColumnCount int    `json:"column_count"`
}

type Range struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type Domain struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Days       []Day       `json:"days"`
	Months     []MonthSpan `json:"months"`
	TodayIndex int         `json:"today_index"`
}

// Build computes the domain for the given filter range as of now. An explicit
// range is used directly, each missing side defaulting to [today-30d,
// today+60d]; with no range at all the window is the current calendar month
// padded by 15 days per side. An inverted range collapses to a single day.
func Build(rng Range, now time.Time) Domain {
	today := timefield.FloorDay(now)

	var start, end time.Time
	switch {
	case rng.From == nil && rng.To == nil:
		// Month-to-date window: first of the current month through today,
		// padded per side, so an unfiltered view always shows near-term
		// context around the today marker.
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start = monthStart.AddDate(0, 0, -defaultMonthPad)
		end = today.AddDate(0, 0, defaultMonthPad)
	default:
		if rng.From != nil {
			start = timefield.FloorDay(*rng.From)
		} else {
			start = today.AddDate(0, 0, -defaultBackDays)
		}
		if rng.To != nil {
			end = timefield.FloorDay(*rng.To)
		} else {
			end = today.AddDate(0, 0, defaultForwardDays)
		}
	}

	if end.Before(start) {
		end = start
	}

	count := daysBetween(start, end) + 1
	days := make([]Day, 0, count)
	for i := 0; i < count; i++ {
		d := start.AddDate(0, 0, i)
		wd := d.Weekday()
		days = append(days, Day{
			Date:       d,
			DayOfMonth: d.Day(),
			Weekday:    d.Format("Mon"),
			IsWeekend:  wd == time.Saturday || wd == time.Sunday,
		})
	}

	months := monthSpans(days)

	todayIdx := daysBetween(start, today)
	if todayIdx < 0 {
		todayIdx = 0
	}
	if todayIdx > count-1 {
		todayIdx = count - 1
	}

	return Domain{
		Start:      start,
		End:        end,
		Days:       days,
		Months:     months,
		TodayIndex: todayIdx,
	}
}

func monthSpans(days []Day) []MonthSpan {
	var spans []MonthSpan
	for i, d := range days {
		if i == 0 || d.Date.Month() != days[i-1].Date.Month() || d.Date.Year() != days[i-1].Date.Year() {
			spans = append(spans, MonthSpan{
				Label:       d.Date.Format("Jan 2006"),
				StartColumn: i,
				ColumnCount: 1,
			})
			continue
		}
		spans[len(spans)-1].ColumnCount++
	}
	return spans
}

func (d Domain) DayCount() int {
	return len(d.Days)
}

// ColumnOf is the unclamped day offset of t from the domain start; negative
// before the domain, >= DayCount past it.
func (d Domain) ColumnOf(t time.Time) int {
	return daysBetween(d.Start, timefield.FloorDay(t))
}

// ClampColumn clips a column index into [0, DayCount-1].
func (d Domain) ClampColumn(col int) int {
	if col < 0 {
		return 0
	}
	if max := d.DayCount() - 1; col > max {
		return max
	}
	return col
}

// daysBetween counts calendar days from a to b (both floored), immune to DST
// shifts because the comparison runs on UTC-rebased dates.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
