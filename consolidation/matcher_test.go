package consolidation_test

import (
	"testing"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/ingest"
)

func logisticsRow(order, erpOrder string, number int) ingest.Row {
	return ingest.NewRowFromMap(map[string]string{
		"Pedido":     order,
		"Pedido ERP": erpOrder,
	}, nil, number)
}

func TestFindMatchByPrimaryCode(t *testing.T) {
	erp := ingest.NewRowFromMap(map[string]string{"CodigoPedido": "1001"}, nil, 1)
	rows := []ingest.Row{
		logisticsRow("2002", "", 1),
		logisticsRow("0001001", "", 2),
	}
	match := consolidation.FindMatch(erp, rows)
	if match == nil || match.Number() != 2 {
		t.Fatalf("expected row 2, got %v", match)
	}
}

func TestFindMatchByExternalCode(t *testing.T) {
	erp := ingest.NewRowFromMap(map[string]string{
		"CodigoPedido":      "1001",
		"Cód Externo Pedido": "555",
	}, nil, 1)

	// External code against the carrier's ERP-order column.
	rows := []ingest.Row{logisticsRow("9999", "555", 1)}
	if match := consolidation.FindMatch(erp, rows); match == nil || match.Number() != 1 {
		t.Fatalf("erp-order column: expected row 1, got %v", match)
	}

	// External code against the carrier's own order column.
	rows = []ingest.Row{logisticsRow("555", "", 1)}
	if match := consolidation.FindMatch(erp, rows); match == nil || match.Number() != 1 {
		t.Fatalf("order column: expected row 1, got %v", match)
	}
}

func TestFindMatchFirstRowWins(t *testing.T) {
	erp := ingest.NewRowFromMap(map[string]string{"CodigoPedido": "1001"}, nil, 1)
	rows := []ingest.Row{
		logisticsRow("1001", "", 1),
		logisticsRow("1001", "", 2),
	}
	match := consolidation.FindMatch(erp, rows)
	if match == nil || match.Number() != 1 {
		t.Fatalf("expected first row, got %v", match)
	}
}

func TestFindMatchNoMatchIsNil(t *testing.T) {
	erp := ingest.NewRowFromMap(map[string]string{"CodigoPedido": "1001"}, nil, 1)
	rows := []ingest.Row{logisticsRow("2002", "3003", 1)}
	if match := consolidation.FindMatch(erp, rows); match != nil {
		t.Fatalf("expected nil, got row %d", match.Number())
	}

	// Empty carrier ids never match empty ERP ids.
	erp = ingest.NewRowFromMap(map[string]string{"CodigoPedido": "1001"}, nil, 1)
	rows = []ingest.Row{logisticsRow("", "", 1)}
	if match := consolidation.FindMatch(erp, rows); match != nil {
		t.Fatalf("expected nil for empty carrier ids, got row %d", match.Number())
	}
}
