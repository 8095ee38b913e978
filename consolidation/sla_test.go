package consolidation_test

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/models"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluateSLANoAlertsWithoutApproval(t *testing.T) {
	order := &models.ConsolidatedOrder{CurrentPhase: models.PhasePicking}
	alerts := consolidation.EvaluateSLA(order, models.DefaultSlaSettings(), models.NewHolidaySet(), time.Now())
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alerts)
	}
}

func TestEvaluateSLACancelledIsSilent(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()
	approved := date(2025, time.June, 2, 8, 0)
	now := date(2025, time.June, 20, 8, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhaseCancelled,
		ApprovedAt:   &approved,
	}
	if alerts := consolidation.EvaluateSLA(order, settings, holidays, now); len(alerts) != 0 {
		t.Fatalf("cancelled phase: expected no alerts, got %v", alerts)
	}

	order = &models.ConsolidatedOrder{
		CurrentPhase:   models.PhasePicking,
		ApprovedAt:     &approved,
		LastOccurrence: ptr("Coleta cancelada pelo cliente"),
	}
	if alerts := consolidation.EvaluateSLA(order, settings, holidays, now); len(alerts) != 0 {
		t.Fatalf("cancelled occurrence: expected no alerts, got %v", alerts)
	}
}

func TestEvaluateSLAPickingBreach(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()

	// Approved Monday 00:00, evaluated Tuesday 06:00: 30 business hours,
	// past the 24h picking and packing limits but inside the 48h ones.
	approved := date(2025, time.June, 2, 0, 0)
	now := date(2025, time.June, 3, 6, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhasePicking,
		ApprovedAt:   &approved,
	}
	alerts := consolidation.EvaluateSLA(order, settings, holidays, now)
	if len(alerts) != 2 {
		t.Fatalf("expected the picking and packing alerts, got %v", alerts)
	}
	if !strings.Contains(alerts[0], "Picking") || !strings.Contains(alerts[1], "Packing") {
		t.Fatalf("unexpected alerts %v", alerts)
	}
}

func TestEvaluateSLAAlertsRegardlessOfPhaseLabel(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()

	// The warehouse alerts key off missing milestones, not the phase label:
	// an order still marked Approved after 30 business hours is a picking
	// delay all the same.
	approved := date(2025, time.June, 2, 0, 0)
	now := date(2025, time.June, 3, 6, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhaseApproved,
		ApprovedAt:   &approved,
	}
	alerts := consolidation.EvaluateSLA(order, settings, holidays, now)
	if len(alerts) == 0 {
		t.Fatal("expected a picking delay for a stalled approved order")
	}
	if !strings.Contains(alerts[0], "Picking") {
		t.Fatalf("unexpected alerts %v", alerts)
	}
}

func TestEvaluateSLAStalledOrderAccumulatesDownstreamAlerts(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()

	// Three weeks with no milestone at all: every stage limit has passed,
	// including transport and delivery, even though the order was never
	// dispatched.
	approved := date(2025, time.June, 2, 8, 0)
	now := date(2025, time.June, 23, 8, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase: models.PhasePicking,
		ApprovedAt:   &approved,
	}
	alerts := consolidation.EvaluateSLA(order, settings, holidays, now)
	joined := strings.Join(alerts, " | ")
	for _, stage := range []string{"Picking", "Packing", "Disponibilidade", "Faturamento", "Transporte", "Entrega"} {
		if !strings.Contains(joined, stage) {
			t.Fatalf("missing %s alert in %v", stage, alerts)
		}
	}
}

func TestEvaluateSLAStageStopsAlertingOnceNextMilestoneLands(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()

	approved := date(2025, time.June, 2, 0, 0)
	available := date(2025, time.June, 3, 10, 0)
	now := date(2025, time.June, 4, 12, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase:          models.PhaseAvailableForBilling,
		ApprovedAt:            &approved,
		AvailableForBillingAt: &available,
	}
	alerts := consolidation.EvaluateSLA(order, settings, holidays, now)
	for _, alert := range alerts {
		if strings.Contains(alert, "Disponibilidade") || strings.Contains(alert, "Picking") {
			t.Fatalf("stage already completed must not alert: %v", alerts)
		}
	}
}

func TestEvaluateSLADeliveredOrderIsQuiet(t *testing.T) {
	settings := models.DefaultSlaSettings()
	holidays := models.NewHolidaySet()

	approved := date(2025, time.June, 2, 8, 0)
	available := date(2025, time.June, 3, 8, 0)
	billed := date(2025, time.June, 3, 16, 0)
	dispatched := date(2025, time.June, 4, 8, 0)
	delivered := date(2025, time.June, 23, 8, 0)
	now := date(2025, time.June, 24, 8, 0)

	order := &models.ConsolidatedOrder{
		CurrentPhase:          models.PhaseDelivered,
		ApprovedAt:            &approved,
		AvailableForBillingAt: &available,
		BilledAt:              &billed,
		DispatchedAt:          &dispatched,
		DeliveredAt:           &delivered,
	}
	// Even a very late delivery produces no alert string.
	if alerts := consolidation.EvaluateSLA(order, settings, holidays, now); len(alerts) != 0 {
		t.Fatalf("delivered: expected no alerts, got %v", alerts)
	}
	if !consolidation.DeliveredLate(order, settings, holidays) {
		t.Fatal("expected DeliveredLate for a three-week delivery")
	}
}

func TestAggregateStatus(t *testing.T) {
	if got := consolidation.AggregateStatus(5, 5); got != models.SlaStatusOnTime {
		t.Fatalf("at the limit = %q, want on time", got)
	}
	if got := consolidation.AggregateStatus(6, 5); got != models.SlaStatusLate {
		t.Fatalf("past the limit = %q, want late", got)
	}
}
