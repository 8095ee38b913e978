package consolidation_test

import (
	"testing"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
)

func erpRow(fiscal, commercial, detail string) ingest.Row {
	return ingest.NewRowFromMap(map[string]string{
		"CodigoPedido":             "1001",
		"SituaçãoFiscal":           fiscal,
		"SituaçãoComercial":        commercial,
		"DetalheSituaçãoComercial": detail,
	}, nil, 1)
}

func csvRow(fields map[string]string, raw []string) *ingest.Row {
	row := ingest.NewRowFromMap(fields, raw, 1)
	return &row
}

func TestClassifyPhaseCancellationWinsOverEverything(t *testing.T) {
	// Cancellation outranks a delivered-looking combination.
	row := erpRow("NF Emitida", "Cancelada", "Entregue para Revendedor")
	if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseCancelled {
		t.Fatalf("got %q, want %q", got, models.PhaseCancelled)
	}

	// Cancellation on the carrier side also wins.
	row = erpRow("NF Emitida", "Transporte", "")
	csv := csvRow(map[string]string{"Status": "Pedido Cancelado"}, nil)
	if got := consolidation.ClassifyPhase(row, csv); got != models.PhaseCancelled {
		t.Fatalf("got %q, want %q", got, models.PhaseCancelled)
	}
}

func TestClassifyPhaseDeliveredStrict(t *testing.T) {
	row := erpRow("NF Emitida", "Entregue", "Entregue para Revendedor")
	if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseDelivered {
		t.Fatalf("erp strict: got %q", got)
	}

	row = erpRow("NF Emitida", "Transporte", "")
	csv := csvRow(map[string]string{"Status": "ENTREGUE"}, nil)
	if got := consolidation.ClassifyPhase(row, csv); got != models.PhaseDelivered {
		t.Fatalf("csv status: got %q", got)
	}
}

func TestClassifyPhaseDeliveredByDatePresence(t *testing.T) {
	row := ingest.NewRowFromMap(map[string]string{
		"CodigoPedido":      "1001",
		"SituaçãoFiscal":    "NF Emitida",
		"SituaçãoComercial": "Separação",
		"Data de Entrega":   "05/06/2025 14:30",
	}, nil, 1)
	if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseDelivered {
		t.Fatalf("erp date: got %q", got)
	}

	// Carrier delivery date arrives in a fixed column whose header is
	// unreliable.
	raw := make([]string, 29)
	raw[28] = "05/06/2025 14:30"
	row = erpRow("NF Emitida", "Separação", "Disponível para Retirada/Entrega")
	csv := csvRow(map[string]string{"Status": "Em Rota"}, raw)
	if got := consolidation.ClassifyPhase(row, csv); got != models.PhaseDelivered {
		t.Fatalf("csv positional date: got %q", got)
	}
}

func TestClassifyPhaseInTransit(t *testing.T) {
	row := erpRow("NF Emitida", "Transporte", "")
	if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseInTransit {
		t.Fatalf("strict: got %q", got)
	}

	// Billed, picked and released for dispatch counts as in transit even
	// before the carrier status confirms it.
	row = erpRow("NF Emitida", "Separação", "Disponível para Retirada/Entrega")
	if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseInTransit {
		t.Fatalf("released for dispatch: got %q", got)
	}

	row = erpRow("Não Faturado", "Separação", "Em Separação")
	csv := csvRow(map[string]string{"Data de Coleta": "04/06/2025 08:00"}, nil)
	if got := consolidation.ClassifyPhase(row, csv); got != models.PhaseInTransit {
		t.Fatalf("pickup date: got %q", got)
	}

	csv = csvRow(map[string]string{"Status": "Em Trânsito"}, nil)
	if got := consolidation.ClassifyPhase(row, csv); got != models.PhaseInTransit {
		t.Fatalf("carrier status: got %q", got)
	}
}

func TestClassifyPhaseWarehouseStages(t *testing.T) {
	cases := []struct {
		fiscal, commercial, detail string
		want                       models.Phase
	}{
		{"Disp. Faturamento", "Separação", "Disponível para Retirada/Entrega", models.PhaseAvailableForBilling},
		{"Não Faturado", "Separação", "Disponível para Retirada/Entrega", models.PhaseAvailableForBilling},
		{"Não Faturado", "Separação", "Em Packing", models.PhasePacking},
		{"Não Faturado", "Separação", "Em Picking", models.PhasePicking},
		{"Não Faturado", "Aprovado", "Aprovado", models.PhaseApproved},
	}
	for _, tc := range cases {
		row := erpRow(tc.fiscal, tc.commercial, tc.detail)
		if got := consolidation.ClassifyPhase(row, nil); got != tc.want {
			t.Fatalf("%s/%s/%s: got %q, want %q", tc.fiscal, tc.commercial, tc.detail, got, tc.want)
		}
	}
}

func TestClassifyPhaseUnknownFallback(t *testing.T) {
	for _, commercial := range []string{"Bloqueado", "Pendente", ""} {
		row := erpRow("Não Faturado", commercial, "")
		if got := consolidation.ClassifyPhase(row, nil); got != models.PhaseUnknown {
			t.Fatalf("%q: got %q, want %q", commercial, got, models.PhaseUnknown)
		}
	}
}
