package timeline

import (
	"testing"

	"opsboard/internal/calendar"
)

func TestFilterBusPublishNotifiesAndStores(t *testing.T) {
	bus := NewFilterBus()

	var got []Filter
	bus.Subscribe(func(f Filter) { got = append(got, f) })

	from := day(2024, 3, 1)
	bus.Publish(Filter{DateRange: calendar.Range{From: &from}})

	if len(got) != 1 {
		t.Fatalf("subscriber calls = %d, want 1", len(got))
	}
	if cur := bus.Filters(); cur.DateRange.From == nil || !cur.DateRange.From.Equal(from) {
		t.Fatalf("bus did not retain the published filter: %+v", cur)
	}
}

func TestFilterBusDefaultIsEmpty(t *testing.T) {
	bus := NewFilterBus()
	if f := bus.Filters(); f.DateRange.From != nil || f.DateRange.To != nil || f.FocusedProjectID != nil {
		t.Fatalf("fresh bus filter = %+v, want zero", f)
	}
}
