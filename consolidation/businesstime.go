package consolidation

import (
	"math"
	"time"

	"bitbucket.org/camposlog/tracking_backend/models"
)

// IsBusinessDay reports whether t falls on a working day: Monday through
// Friday and not in the holiday calendar.
func IsBusinessDay(t time.Time, holidays models.HolidaySet) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(t)
}

// BusinessDaysBetween counts elapsed business days from start to end: the
// number of business days in [start, end] inclusive, minus one, floored at 0.
// Jan 1 to Jan 6 with a Sunday in between is 4 elapsed business days.
func BusinessDaysBetween(start, end time.Time, holidays models.HolidaySet) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	if start.After(end) {
		return 0
	}

	count := 0
	current := startOfDay(start)
	target := startOfDay(end)
	for !current.After(target) {
		if IsBusinessDay(current, holidays) {
			count++
		}
		current = current.AddDate(0, 0, 1)
	}

	if count > 0 {
		return count - 1
	}
	return 0
}

// BusinessHoursBetween sums elapsed hours between start and end counting only
// business days, rounded to 2 decimals. A start on a weekend or holiday slides
// forward to the next business day's midnight; orders approved on Saturday
// only start their clock Monday 00:00. Full business days in the middle of the
// span contribute 24 hours; non-business days contribute nothing.
func BusinessHoursBetween(start, end time.Time, holidays models.HolidaySet) float64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	if start.After(end) {
		return 0
	}

	current := start
	for !IsBusinessDay(current, holidays) {
		current = startOfDay(current).AddDate(0, 0, 1)
		if current.After(end) {
			return 0
		}
	}

	total := 0.0
	firstDay := startOfDay(current)
	lastDay := startOfDay(end)
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if !IsBusinessDay(day, holidays) {
			continue
		}
		isFirst := day.Equal(firstDay)
		isLast := day.Equal(lastDay)
		switch {
		case isFirst && isLast:
			total += end.Sub(current).Hours()
		case isFirst:
			total += day.AddDate(0, 0, 1).Sub(current).Hours()
		case isLast:
			total += end.Sub(day).Hours()
		default:
			total += 24
		}
	}

	return math.Round(total*100) / 100
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
