package models

// Phase is the pipeline stage of an order. Stored values keep the vocabulary
// the operations team sees on the board.
type Phase string

const (
	PhaseApproved            Phase = "Aprovado"
	PhasePicking             Phase = "Picking"
	PhasePacking             Phase = "Packing"
	PhaseAvailableForBilling Phase = "Disponível para faturamento"
	PhaseInTransit           Phase = "Transporte"
	PhaseDelivered           Phase = "Entregue"
	PhaseCancelled           Phase = "Cancelado"
	// PhaseUnknown marks status combinations no classification rule recognizes
	// (e.g. "Bloqueado", "Pendente"). They used to be relabeled as cancelled,
	// which hid them from the board entirely.
	PhaseUnknown Phase = "Indefinido"
	// PhaseReturn only ever comes from a manual override, never from the classifier.
	PhaseReturn Phase = "Devolução"
)

// PipelinePhases are the kanban columns, in pipeline order.
var PipelinePhases = []Phase{
	PhaseApproved,
	PhasePicking,
	PhasePacking,
	PhaseAvailableForBilling,
	PhaseInTransit,
	PhaseDelivered,
}

func IsValidPhase(v string) bool {
	switch Phase(v) {
	case PhaseApproved, PhasePicking, PhasePacking, PhaseAvailableForBilling,
		PhaseInTransit, PhaseDelivered, PhaseCancelled, PhaseUnknown, PhaseReturn:
		return true
	default:
		return false
	}
}

type SlaStatus string

const (
	SlaStatusOnTime SlaStatus = "NO PRAZO"
	SlaStatusLate   SlaStatus = "ATRASADO"
)

const (
	MatchKeyMatched = "matched"
	MatchKeyNone    = "none"
)

const (
	ImportRunStatusQueued  = "queued"
	ImportRunStatusRunning = "running"
	ImportRunStatusSuccess = "success"
	ImportRunStatusFailed  = "failed"
)

const (
	ImportTypeErp       = "erp"
	ImportTypeLogistics = "logistics"
	ImportTypeBoth      = "both"
)

const (
	ReturnResolutionCancelled  = "Cancelado"
	ReturnResolutionRedelivery = "Reentrega"
)
