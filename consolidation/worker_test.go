package consolidation_test

import (
	"testing"
	"time"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
)

func TestConsolidateApprovedOrder(t *testing.T) {
	erpRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":             "1001",
			"SituaçãoFiscal":           "Não Faturado",
			"SituaçãoComercial":        "Aprovado",
			"DetalheSituaçãoComercial": "Aprovado",
			"Data Aprovação":           "05/06/2025 08:00:00",
			"Bairro":                   "Centro",
			"Município":                "Campos dos Goytacazes/RJ",
			"Pessoa":                   "Maria da Silva",
		}, nil, 1),
	}
	now := date(2025, time.June, 6, 17, 0)

	orders, stats, issues := consolidation.Consolidate(
		erpRows, nil, nil, models.DefaultSlaSettings(), models.NewHolidaySet(), now)

	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	order := orders[0]
	if order.InternalId != "1001" {
		t.Fatalf("internal id = %q", order.InternalId)
	}
	if order.CurrentPhase != models.PhaseApproved {
		t.Fatalf("phase = %q", order.CurrentPhase)
	}
	if order.ApprovedAt == nil || !order.ApprovedAt.Equal(date(2025, time.June, 5, 8, 0)) {
		t.Fatalf("approved at = %v", order.ApprovedAt)
	}
	if order.Location != "Centro - Campos dos Goytacazes" {
		t.Fatalf("location = %q", order.Location)
	}
	if order.MatchKeyUsed != models.MatchKeyNone {
		t.Fatalf("match key = %q", order.MatchKeyUsed)
	}
	// One elapsed business day, well inside the five-day limit.
	if order.BusinessDaysSinceApproval != 1 {
		t.Fatalf("business days = %d", order.BusinessDaysSinceApproval)
	}
	if order.SlaStatus != models.SlaStatusOnTime {
		t.Fatalf("sla status = %q", order.SlaStatus)
	}
	if stats.Consolidated != 1 || stats.Unmatched != 1 || stats.Matched != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestConsolidateMatchedDeliveredOrder(t *testing.T) {
	erpRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":             "1001",
			"SituaçãoFiscal":           "NF Emitida",
			"SituaçãoComercial":        "Separação",
			"DetalheSituaçãoComercial": "Disponível para Retirada/Entrega",
			"Data Aprovação":           "02/06/2025 08:00:00",
		}, nil, 1),
	}
	raw := make([]string, 29)
	raw[28] = "05/06/2025 14:30"
	logisticsRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"Pedido":           "0001001",
			"Transportadora":   "TransLog",
			"Rota":             "Rota 7",
			"Motorista":        "Carlos",
			"Data de Coleta":   "04/06/2025 08:00",
			"Última Ocorrência": "Entrega realizada",
		}, raw, 1),
	}
	now := date(2025, time.June, 6, 12, 0)

	orders, stats, _ := consolidation.Consolidate(
		erpRows, logisticsRows, nil, models.DefaultSlaSettings(), models.NewHolidaySet(), now)

	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	order := orders[0]
	if order.MatchKeyUsed != models.MatchKeyMatched {
		t.Fatalf("match key = %q", order.MatchKeyUsed)
	}
	if order.CurrentPhase != models.PhaseDelivered {
		t.Fatalf("phase = %q", order.CurrentPhase)
	}
	if order.Carrier == nil || *order.Carrier != "TransLog" {
		t.Fatalf("carrier = %v", order.Carrier)
	}
	if order.Route == nil || *order.Route != "Rota 7" {
		t.Fatalf("route = %v", order.Route)
	}
	if order.DispatchedAt == nil || !order.DispatchedAt.Equal(date(2025, time.June, 4, 8, 0)) {
		t.Fatalf("dispatched at = %v", order.DispatchedAt)
	}
	if order.DeliveredAt == nil || !order.DeliveredAt.Equal(time.Date(2025, time.June, 5, 14, 30, 0, 0, time.Local)) {
		t.Fatalf("delivered at = %v", order.DeliveredAt)
	}
	if order.HoursInTransport == nil {
		t.Fatal("expected transport duration for dispatched+delivered")
	}
	if stats.Matched != 1 || stats.Unmatched != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestConsolidateDedupeLastWriteWins(t *testing.T) {
	erpRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":      "1001",
			"SituaçãoComercial": "Aprovado",
		}, nil, 1),
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":      "2002",
			"SituaçãoComercial": "Aprovado",
		}, nil, 2),
		// Re-export of 1001 later in the file, with fresher status.
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":             "0001001",
			"SituaçãoFiscal":           "Não Faturado",
			"SituaçãoComercial":        "Separação",
			"DetalheSituaçãoComercial": "Em Picking",
		}, nil, 3),
	}
	now := date(2025, time.June, 6, 12, 0)

	orders, stats, _ := consolidation.Consolidate(
		erpRows, nil, nil, models.DefaultSlaSettings(), models.NewHolidaySet(), now)

	if len(orders) != 2 {
		t.Fatalf("expected 2 orders after dedupe, got %d", len(orders))
	}
	// The duplicate keeps its original position but carries the later data.
	if orders[0].InternalId != "1001" || orders[1].InternalId != "2002" {
		t.Fatalf("order positions = %q, %q", orders[0].InternalId, orders[1].InternalId)
	}
	if orders[0].CurrentPhase != models.PhasePicking {
		t.Fatalf("deduped phase = %q, want picking from the later row", orders[0].CurrentPhase)
	}
	if stats.Consolidated != 2 || stats.ErpRows != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.PickingToday != 1 {
		t.Fatalf("picking today = %d", stats.PickingToday)
	}
}

func TestConsolidateSkipsRowsWithoutId(t *testing.T) {
	erpRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":      "",
			"SituaçãoComercial": "Aprovado",
		}, nil, 1),
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":      "SEM-NUMERO",
			"SituaçãoComercial": "Aprovado",
		}, nil, 2),
	}
	now := date(2025, time.June, 6, 12, 0)

	orders, stats, issues := consolidation.Consolidate(
		erpRows, nil, nil, models.DefaultSlaSettings(), models.NewHolidaySet(), now)

	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
	if stats.SkippedRows != 2 || len(issues) != 2 {
		t.Fatalf("stats = %+v, issues = %v", stats, issues)
	}
	if issues[0].RowNumber != 1 || issues[1].RowNumber != 2 {
		t.Fatalf("issue rows = %v", issues)
	}
}

func TestConsolidateAppliesOverrides(t *testing.T) {
	erpRows := []ingest.Row{
		ingest.NewRowFromMap(map[string]string{
			"CodigoPedido":             "1001",
			"SituaçãoFiscal":           "Não Faturado",
			"SituaçãoComercial":        "Aprovado",
			"DetalheSituaçãoComercial": "Aprovado",
		}, nil, 1),
	}
	overrides := map[string]models.Phase{"1001": models.PhaseReturn}
	now := date(2025, time.June, 6, 12, 0)

	orders, stats, _ := consolidation.Consolidate(
		erpRows, nil, overrides, models.DefaultSlaSettings(), models.NewHolidaySet(), now)

	if len(orders) != 1 || orders[0].CurrentPhase != models.PhaseReturn {
		t.Fatalf("expected return override, got %+v", orders)
	}
	if stats.Overridden != 1 {
		t.Fatalf("overridden = %d", stats.Overridden)
	}
}
