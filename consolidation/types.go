package consolidation

import (
	"encoding/json"
	"time"

	"bitbucket.org/camposlog/tracking_backend/models"
)

type ImportRunResponse struct {
	ID            uint       `json:"id"`
	Status        string     `json:"status"`
	ImportType    string     `json:"import_type"`
	FileNames     string     `json:"file_names"`
	TriggeredBy   string     `json:"triggered_by"`
	RecordCount   int        `json:"record_count"`
	ErrorCount    int        `json:"error_count"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	Stats         any        `json:"stats,omitempty"`
	CorrelationId string     `json:"correlation_id,omitempty"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewImportRunResponse(run *models.ImportRun) ImportRunResponse {
	resp := ImportRunResponse{
		ID:            run.ID,
		Status:        run.Status,
		ImportType:    run.ImportType,
		FileNames:     run.FileNames,
		TriggeredBy:   run.TriggeredBy,
		RecordCount:   run.RecordCount,
		ErrorCount:    run.ErrorCount,
		ErrorMessage:  run.ErrorMessage,
		CorrelationId: run.CorrelationId,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		DurationMs:    run.DurationMs,
		CreatedAt:     run.CreatedAt,
	}
	if len(run.StatsJSON) > 0 {
		var stats models.ImportRunStats
		if err := json.Unmarshal(run.StatsJSON, &stats); err == nil {
			resp.Stats = stats
		}
	}
	return resp
}

type OrderResponse struct {
	ID         uint   `json:"id"`
	InternalId string `json:"internal_id"`
	ExternalId string `json:"external_id"`

	LogisticsId *string `json:"logistics_id"`
	ErpCsvId    *string `json:"erp_csv_id"`

	CurrentPhase models.Phase `json:"current_phase"`

	ApprovedAt            *time.Time `json:"approved_at"`
	AvailableForBillingAt *time.Time `json:"available_for_billing_at"`
	BilledAt              *time.Time `json:"billed_at"`
	DispatchedAt          *time.Time `json:"dispatched_at"`
	DeliveredAt           *time.Time `json:"delivered_at"`

	BusinessDaysSinceApproval int              `json:"business_days_since_approval"`
	HoursToAvailable          *float64         `json:"hours_to_available"`
	HoursToBilled             *float64         `json:"hours_to_billed"`
	HoursInTransport          *float64         `json:"hours_in_transport"`
	SlaStatus                 models.SlaStatus `json:"sla_status"`
	SlaAlerts                 []string         `json:"sla_alerts"`
	DeliveredLate             bool             `json:"delivered_late"`

	Carrier        *string `json:"carrier"`
	Route          *string `json:"route"`
	Driver         *string `json:"driver"`
	LastOccurrence *string `json:"last_occurrence"`
	Location       string  `json:"location"`
	PersonName     *string `json:"person_name"`
	Situation      *string `json:"situation"`
	MatchKeyUsed   string  `json:"match_key_used"`
}

type OrderListResponse struct {
	Orders  []OrderResponse `json:"orders"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"has_more"`
}

type KanbanColumn struct {
	Phase  models.Phase    `json:"phase"`
	Count  int             `json:"count"`
	Orders []OrderResponse `json:"orders"`
}

type KanbanResponse struct {
	Columns     []KanbanColumn `json:"columns"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type ReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ReturnResolutionRequest struct {
	// Empty resolution clears the current one.
	Resolution string `json:"resolution"`
}

type ReturnResponse struct {
	InternalId string         `json:"internal_id"`
	Reason     string         `json:"reason"`
	Resolution *string        `json:"resolution"`
	Order      *OrderResponse `json:"order,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
