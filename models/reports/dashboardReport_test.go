package reports

import (
	"testing"
	"time"

	"bitbucket.org/camposlog/tracking_backend/models"
)

func stamp(day, hour int) time.Time {
	return time.Date(2025, time.June, day, hour, 0, 0, 0, time.UTC)
}

func TestIsOrderLateDeliveredPastHourLimit(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()
	now := stamp(10, 12)

	// Delivered on the fifth business day: inside the day limit, but the
	// 128 business hours in transit exceed the 120h delivery limit.
	approved := stamp(2, 0)
	delivered := stamp(9, 8)
	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhaseDelivered,
		ApprovedAt:   &approved,
		DeliveredAt:  &delivered,
	}
	if !isOrderLate(order, settings, holidays, now) {
		t.Fatal("delivery past the hour limit must count as late")
	}
}

func TestIsOrderLateDeliveredOnTime(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()
	now := stamp(10, 12)

	approved := stamp(2, 8)
	delivered := stamp(4, 8)
	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhaseDelivered,
		ApprovedAt:   &approved,
		DeliveredAt:  &delivered,
	}
	if isOrderLate(order, settings, holidays, now) {
		t.Fatal("a two-day delivery must not count as late")
	}
}
