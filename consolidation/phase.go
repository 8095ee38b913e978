package consolidation

import (
	"strings"

	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
)

// ERP status fields.
var (
	erpFiscalFields       = []string{"SituaçãoFiscal", "Situação Fiscal"}
	erpCommercialFields   = []string{"SituaçãoComercial", "Situação Comercial", "SituacaoComercial"}
	erpDetailFields       = []string{"DetalheSituaçãoComercial", "Detalhe da Situação Comercial", "DetalheSituacaoComercial"}
	erpDeliveryDateFields = []string{"DataEntrega", "Data Entrega", "Data de Entrega"}
)

// Logistics status fields. The delivery-date column additionally has a fixed
// position because its header is unreliable across exports.
var (
	logisticsStatusFields     = []string{"Status"}
	logisticsOccurrenceFields = []string{"Última Ocorrência", "Ultima Ocorrencia"}
	logisticsPickupField      = []string{"Data de Coleta"}
	logisticsDeliveryFields   = []string{"Status (hora efetuada)", "Status (Hora Efetuada)", "Data de Entrega", "Data Entrega"}
)

// LogisticsDeliveryDateColumn is the raw index of the delivery-date column
// (column AC) in the carrier CSV.
const LogisticsDeliveryDateColumn = 28

type phaseInput struct {
	fiscal     string
	commercial string
	detail     string

	csvStatus     string
	csvOccurrence string

	erpDeliveryRaw string
	csvDeliveryRaw string
	csvPickupRaw   string
}

func newPhaseInput(erpRow ingest.Row, logisticsRow *ingest.Row) phaseInput {
	in := phaseInput{
		fiscal:         normText(erpRow.Get(erpFiscalFields...)),
		commercial:     normText(erpRow.Get(erpCommercialFields...)),
		detail:         normText(erpRow.Get(erpDetailFields...)),
		erpDeliveryRaw: strings.TrimSpace(erpRow.Get(erpDeliveryDateFields...)),
	}
	if logisticsRow != nil {
		in.csvStatus = normText(logisticsRow.Get(logisticsStatusFields...))
		in.csvOccurrence = normText(logisticsRow.Get(logisticsOccurrenceFields...))
		in.csvPickupRaw = strings.TrimSpace(logisticsRow.Get(logisticsPickupField...))
		in.csvDeliveryRaw = logisticsDeliveryRaw(*logisticsRow)
	}
	return in
}

// logisticsDeliveryRaw accepts the positional column and the known header
// variants as equally valid sources for the carrier delivery date.
func logisticsDeliveryRaw(row ingest.Row) string {
	if v := strings.TrimSpace(row.At(LogisticsDeliveryDateColumn)); v != "" {
		return v
	}
	return strings.TrimSpace(row.Get(logisticsDeliveryFields...))
}

func normText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsCancel(s string) bool {
	// Covers both "cancelado" and "cancelada".
	return strings.Contains(s, "cancelad")
}

func anyOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

type phaseRule struct {
	name    string
	phase   models.Phase
	matches func(in phaseInput) bool
}

// phaseRules is the classification decision table, evaluated top to bottom
// with first match winning. The ordering is load-bearing: cancellation is
// checked before anything else, the strict terminal states before their
// fallbacks. "NF emitida + separação + disponível para retirada/entrega" is
// classified as Transporte (rule v2, validated with the logistics team);
// the earlier revision that routed it near Disponível para faturamento is
// superseded.
var phaseRules = []phaseRule{
	{
		name:  "cancelled",
		phase: models.PhaseCancelled,
		matches: func(in phaseInput) bool {
			return containsCancel(in.fiscal) ||
				containsCancel(in.commercial) ||
				containsCancel(in.detail) ||
				containsCancel(in.csvStatus) ||
				containsCancel(in.csvOccurrence)
		},
	},
	{
		name:  "delivered-strict",
		phase: models.PhaseDelivered,
		matches: func(in phaseInput) bool {
			if in.fiscal == "nf emitida" && in.commercial == "entregue" && in.detail == "entregue para revendedor" {
				return true
			}
			return in.csvStatus == "entregue" || in.csvStatus == "entregue."
		},
	},
	{
		name:  "transit-strict",
		phase: models.PhaseInTransit,
		matches: func(in phaseInput) bool {
			return in.fiscal == "nf emitida" && in.commercial == "transporte"
		},
	},
	{
		name:  "delivered-by-date",
		phase: models.PhaseDelivered,
		matches: func(in phaseInput) bool {
			return in.erpDeliveryRaw != "" || in.csvDeliveryRaw != ""
		},
	},
	{
		name:  "transit-logistics",
		phase: models.PhaseInTransit,
		matches: func(in phaseInput) bool {
			if in.fiscal == "nf emitida" && anyOf(in.commercial, "separação", "separacao") && in.detail == "disponível para retirada/entrega" {
				return true
			}
			if in.csvPickupRaw != "" {
				return true
			}
			return anyOf(in.csvStatus, "em transito", "em trânsito", "no cliente", "no cliente.")
		},
	},
	{
		name:  "available-for-billing",
		phase: models.PhaseAvailableForBilling,
		matches: func(in phaseInput) bool {
			return anyOf(in.fiscal, "disp. faturamento", "disponível para faturamento", "não faturado", "nao faturado") &&
				anyOf(in.commercial, "separação", "separacao") &&
				in.detail == "disponível para retirada/entrega"
		},
	},
	{
		name:  "packing",
		phase: models.PhasePacking,
		matches: func(in phaseInput) bool {
			return anyOf(in.fiscal, "não faturado", "nao faturado") &&
				anyOf(in.commercial, "separação", "separacao") &&
				in.detail == "em packing"
		},
	},
	{
		name:  "picking",
		phase: models.PhasePicking,
		matches: func(in phaseInput) bool {
			return anyOf(in.fiscal, "não faturado", "nao faturado") &&
				anyOf(in.commercial, "separação", "separacao") &&
				in.detail == "em picking"
		},
	},
	{
		name:  "approved",
		phase: models.PhaseApproved,
		matches: func(in phaseInput) bool {
			return anyOf(in.fiscal, "não faturado", "nao faturado") &&
				in.commercial == "aprovado" && in.detail == "aprovado"
		},
	},
}

// ClassifyPhase derives the pipeline phase of one order from its ERP row and
// optional matched logistics row. Status combinations no rule recognizes
// (e.g. "Bloqueado", "Pendente") come back as Indefinido instead of being
// relabeled as cancelled; display policy for those is the caller's call.
func ClassifyPhase(erpRow ingest.Row, logisticsRow *ingest.Row) models.Phase {
	input := newPhaseInput(erpRow, logisticsRow)
	for _, rule := range phaseRules {
		if rule.matches(input) {
			return rule.phase
		}
	}
	return models.PhaseUnknown
}
