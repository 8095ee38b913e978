package consolidation_test

import (
	"testing"
	"time"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/models"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func TestBusinessDaysBetween(t *testing.T) {
	noHolidays := models.NewHolidaySet()

	// 2025-06-02 is a Monday.
	mon := date(2025, time.June, 2, 9, 0)
	fri := date(2025, time.June, 6, 18, 0)
	nextMon := date(2025, time.June, 9, 9, 0)

	if got := consolidation.BusinessDaysBetween(mon, mon, noHolidays); got != 0 {
		t.Fatalf("same day = %d, want 0", got)
	}
	if got := consolidation.BusinessDaysBetween(fri, mon, noHolidays); got != 0 {
		t.Fatalf("start after end = %d, want 0", got)
	}
	if got := consolidation.BusinessDaysBetween(mon, fri, noHolidays); got != 4 {
		t.Fatalf("mon..fri = %d, want 4", got)
	}
	// The weekend in between contributes nothing.
	if got := consolidation.BusinessDaysBetween(mon, nextMon, noHolidays); got != 5 {
		t.Fatalf("mon..next mon = %d, want 5", got)
	}

	// Corpus Christi style midweek holiday removes one day.
	withHoliday := models.NewHolidaySet(date(2025, time.June, 4, 0, 0))
	if got := consolidation.BusinessDaysBetween(mon, fri, withHoliday); got != 3 {
		t.Fatalf("mon..fri with wed holiday = %d, want 3", got)
	}

	// A span living entirely on a weekend counts nothing.
	sat := date(2025, time.June, 7, 10, 0)
	sun := date(2025, time.June, 8, 22, 0)
	if got := consolidation.BusinessDaysBetween(sat, sun, noHolidays); got != 0 {
		t.Fatalf("sat..sun = %d, want 0", got)
	}
}

func TestBusinessDaysBetweenMonotonic(t *testing.T) {
	noHolidays := models.NewHolidaySet()
	start := date(2025, time.June, 2, 8, 0)
	prev := 0
	for i := 0; i < 30; i++ {
		end := start.AddDate(0, 0, i)
		got := consolidation.BusinessDaysBetween(start, end, noHolidays)
		if got < prev {
			t.Fatalf("day count decreased at offset %d: %d -> %d", i, prev, got)
		}
		prev = got
	}
}

func TestBusinessHoursBetween(t *testing.T) {
	noHolidays := models.NewHolidaySet()

	// Same business day.
	start := date(2025, time.June, 2, 9, 0)
	end := date(2025, time.June, 2, 15, 30)
	if got := consolidation.BusinessHoursBetween(start, end, noHolidays); got != 6.5 {
		t.Fatalf("same day = %v, want 6.5", got)
	}

	// Friday evening to Monday morning: only the friday tail and the monday
	// head count.
	fri := date(2025, time.June, 6, 18, 0)
	mon := date(2025, time.June, 9, 10, 0)
	if got := consolidation.BusinessHoursBetween(fri, mon, noHolidays); got != 16 {
		t.Fatalf("fri..mon = %v, want 16", got)
	}

	// Weekend start slides to Monday midnight.
	sat := date(2025, time.June, 7, 14, 0)
	if got := consolidation.BusinessHoursBetween(sat, mon, noHolidays); got != 10 {
		t.Fatalf("sat..mon = %v, want 10", got)
	}

	// Entirely inside a weekend.
	sun := date(2025, time.June, 8, 20, 0)
	if got := consolidation.BusinessHoursBetween(sat, sun, noHolidays); got != 0 {
		t.Fatalf("sat..sun = %v, want 0", got)
	}

	// A full business day in the middle contributes 24 hours.
	tue := date(2025, time.June, 3, 12, 0)
	thu := date(2025, time.June, 5, 12, 0)
	if got := consolidation.BusinessHoursBetween(tue, thu, noHolidays); got != 48 {
		t.Fatalf("tue..thu = %v, want 48", got)
	}

	// A holiday in the middle contributes nothing.
	withHoliday := models.NewHolidaySet(date(2025, time.June, 4, 0, 0))
	if got := consolidation.BusinessHoursBetween(tue, thu, withHoliday); got != 24 {
		t.Fatalf("tue..thu with wed holiday = %v, want 24", got)
	}

	if got := consolidation.BusinessHoursBetween(thu, tue, noHolidays); got != 0 {
		t.Fatalf("start after end = %v, want 0", got)
	}
}
