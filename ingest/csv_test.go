package ingest_test

import (
	"strings"
	"testing"

	"bitbucket.org/camposlog/tracking_backend/ingest"
)

func TestDetectSeparator(t *testing.T) {
	if got := ingest.DetectSeparator("Pedido;Status;Rota"); got != ';' {
		t.Fatalf("semicolon header: got %q", got)
	}
	if got := ingest.DetectSeparator("Pedido,Status,Rota"); got != ',' {
		t.Fatalf("comma header: got %q", got)
	}
	// Mixed headers choose the more frequent separator.
	if got := ingest.DetectSeparator("Pedido;Status, Observação;Rota"); got != ';' {
		t.Fatalf("mixed header: got %q", got)
	}
}

func TestSplitDelimitedRespectsQuotes(t *testing.T) {
	cols := ingest.SplitDelimited(`1001;"Campos, Centro";Entregue`, ';')
	if len(cols) != 3 {
		t.Fatalf("expected 3 cells, got %v", cols)
	}
	if cols[1] != "Campos, Centro" {
		t.Fatalf("quoted cell = %q", cols[1])
	}

	cols = ingest.SplitDelimited(`a,"b,c",d`, ',')
	if len(cols) != 3 || cols[1] != "b,c" {
		t.Fatalf("comma quoted = %v", cols)
	}
}

func TestReadLogisticsCSV(t *testing.T) {
	input := "Pedido;Status;Rota\r\n" +
		"1001;Em Trânsito;Rota 7\r\n" +
		"\r\n" +
		"2002;Entregue;Rota 3\r\n"

	rows, err := ingest.ReadLogisticsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if got := rows[0].Get("Pedido"); got != "1001" {
		t.Fatalf("row 1 pedido = %q", got)
	}
	if got := rows[1].Get("Status"); got != "Entregue" {
		t.Fatalf("row 2 status = %q", got)
	}
	if rows[1].Number() != 2 {
		t.Fatalf("row 2 number = %d", rows[1].Number())
	}
	if got := rows[0].At(2); got != "Rota 7" {
		t.Fatalf("positional = %q", got)
	}
}

func TestRowGetProbesCaseVariants(t *testing.T) {
	row := ingest.NewRowFromMap(map[string]string{"PEDIDO": "1001"}, nil, 1)
	if got := row.Get("Pedido"); got != "1001" {
		t.Fatalf("upper-cased header not found, got %q", got)
	}
	if got := row.Get("Rota", "Pedido"); got != "1001" {
		t.Fatalf("fallback candidate not found, got %q", got)
	}
}
