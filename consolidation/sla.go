package consolidation

import (
	"fmt"
	"strings"
	"time"

	"bitbucket.org/camposlog/tracking_backend/models"
)

// EvaluateSLA walks the milestone chain of one order and returns the alerts
// currently active against the configured stage limits. Hours are business
// hours (weekends and holidays excluded). Cancelled orders and orders with no
// approval timestamp produce no alerts: without an approval there is no clock
// to measure against.
//
// A stage only alerts while the order is still waiting on it, which here
// means the stage's own milestone timestamp and every later one are absent.
// Once the next milestone lands, the earlier stage stops alerting even if it
// had been breached; the dashboard surfaces open problems, not a breach
// history. An order stuck early in the chain therefore accumulates every
// downstream alert whose threshold has passed.
func EvaluateSLA(order *models.ConsolidatedOrder, settings models.SlaSettings, holidays models.HolidaySet, now time.Time) []string {
	if isCancelledOrder(order) {
		return nil
	}
	if order.ApprovedAt == nil {
		return nil
	}

	approved := *order.ApprovedAt
	var alerts []string

	elapsed := func(until *time.Time) float64 {
		end := now
		if until != nil {
			end = *until
		}
		return BusinessHoursBetween(approved, end, holidays)
	}
	pending := func(stamps ...*time.Time) bool {
		for _, ts := range stamps {
			if ts != nil {
				return false
			}
		}
		return true
	}

	// Picking and packing have no timestamps of their own; they are pending
	// while nothing downstream has happened yet.
	if pending(order.AvailableForBillingAt, order.BilledAt, order.DispatchedAt, order.DeliveredAt) {
		hours := elapsed(nil)
		if hours > float64(settings.PickingHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso no Início do Picking (>%vh úteis)", settings.PickingHours))
		}
		if hours > float64(settings.PackingHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso no Packing (>%vh úteis)", settings.PackingHours))
		}
		if hours > float64(settings.AvailableHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso na Disponibilidade (>%vh úteis)", settings.AvailableHours))
		}
	}

	if pending(order.BilledAt, order.DispatchedAt, order.DeliveredAt) {
		if elapsed(nil) > float64(settings.BilledHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso no Faturamento (>%vh úteis)", settings.BilledHours))
		}
	}

	if pending(order.DispatchedAt, order.DeliveredAt) {
		if elapsed(nil) > float64(settings.DispatchedHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso no Transporte (>%vh úteis)", settings.DispatchedHours))
		}
	}

	if pending(order.DeliveredAt) {
		if elapsed(nil) > float64(settings.DeliveredHours) {
			alerts = append(alerts, fmt.Sprintf("Atraso na Entrega (>%vh úteis)", settings.DeliveredHours))
		}
	}

	return alerts
}

// DeliveredLate reports whether a delivered order exceeded the end-to-end
// delivery limit. Tracked for the delivered milestone even though it never
// produces an alert string.
func DeliveredLate(order *models.ConsolidatedOrder, settings models.SlaSettings, holidays models.HolidaySet) bool {
	if order.ApprovedAt == nil || order.DeliveredAt == nil {
		return false
	}
	return BusinessHoursBetween(*order.ApprovedAt, *order.DeliveredAt, holidays) > float64(settings.DeliveredHours)
}

// AggregateStatus collapses the business-day age of an order into the
// two-state label shown on the board.
func AggregateStatus(businessDays int, maxBusinessDays int) models.SlaStatus {
	if businessDays > maxBusinessDays {
		return models.SlaStatusLate
	}
	return models.SlaStatusOnTime
}

func isCancelledOrder(order *models.ConsolidatedOrder) bool {
	if order.CurrentPhase == models.PhaseCancelled {
		return true
	}
	if order.Situation != nil && containsCancel(strings.ToLower(*order.Situation)) {
		return true
	}
	if order.LastOccurrence != nil && containsCancel(strings.ToLower(*order.LastOccurrence)) {
		return true
	}
	return false
}
