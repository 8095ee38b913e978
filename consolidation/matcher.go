package consolidation

import "bitbucket.org/camposlog/tracking_backend/ingest"

// Field name candidates per source. Both systems re-label columns between
// exports; every lookup probes the known variants.
var (
	erpPrimaryCodeFields  = []string{"CodigoPedido", "Pedido", "Código Pedido"}
	erpExternalCodeFields = []string{"Cód Externo Pedido", "CodExterno", "Cód. Externo Pedido"}

	logisticsOrderField    = []string{"Pedido"}
	logisticsErpOrderField = []string{"Pedido ERP"}
)

// FindMatch locates the logistics row belonging to an ERP row. Three key
// equalities are accepted, in order of trust: logistics order = ERP primary
// code, logistics ERP-order = ERP external code, logistics order = ERP
// external code. The first satisfying row in source file order wins; scanning
// order matters for orders with duplicated codes, so callers must keep
// logisticsRows in file order. No match is a valid outcome, not an error.
func FindMatch(erpRow ingest.Row, logisticsRows []ingest.Row) *ingest.Row {
	erpPrimary := NormalizeID(erpRow.Get(erpPrimaryCodeFields...))
	erpExternal := NormalizeID(erpRow.Get(erpExternalCodeFields...))

	for i := range logisticsRows {
		csvOrder := NormalizeID(logisticsRows[i].Get(logisticsOrderField...))
		csvErpOrder := NormalizeID(logisticsRows[i].Get(logisticsErpOrderField...))

		if csvOrder != "" && csvOrder == erpPrimary {
			return &logisticsRows[i]
		}
		if csvErpOrder != "" && csvErpOrder == erpExternal {
			return &logisticsRows[i]
		}
		if csvOrder != "" && csvOrder == erpExternal {
			return &logisticsRows[i]
		}
	}
	return nil
}
