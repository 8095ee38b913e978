package consolidation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"go.opentelemetry.io/otel"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
	"bitbucket.org/camposlog/tracking_backend/utils"
)

const moduleName = "consolidation"

// ImportLockKey serializes consolidation runs. Two concurrent runs would race
// each other on the snapshot replace.
const ImportLockKey = "lock:import"

var tracer = otel.Tracer("tracking-backend")

// Milestone and descriptive ERP columns, with the header variants seen across
// ERP exports.
var (
	erpApprovedFields  = []string{"Data Aprovação", "DataAprovação", "Data de Aprovação"}
	erpBilledFields    = []string{"DataFaturamento", "Data Faturamento", "Data de Faturamento"}
	erpAvailableFields = []string{"DataAutorizaçãoFaturamento", "Data Autorização Faturamento", "Data de Autorização Faturamento", "DataAutorização"}

	erpNeighborhoodFields = []string{"Bairro"}
	erpMunicipalityFields = []string{"Município", "Municipio", "Cidade"}
	erpPersonFields       = []string{"Pessoa", "Cliente", "Nome Cliente"}

	logisticsCarrierFields = []string{"Transportadora"}
	logisticsRouteFields   = []string{"Rota"}
	logisticsDriverFields  = []string{"Motorista"}
)

const missingLocation = "Localização não informada"

// Issue records one row the pipeline refused, with enough context for the
// operator to fix the source file.
type Issue struct {
	Source    string
	RowNumber int
	Reason    string
}

// Consolidate runs the full reconciliation pipeline in memory: match every
// ERP row against the carrier rows, classify its phase, extract milestones
// and evaluate SLA state. It touches no storage; callers own persistence.
//
// Orders sharing an internal id are deduplicated last-write-wins, keeping the
// position of the first occurrence so the output order tracks the source file.
func Consolidate(
	erpRows []ingest.Row,
	logisticsRows []ingest.Row,
	overrides map[string]models.Phase,
	settings models.SlaSettings,
	holidays models.HolidaySet,
	now time.Time,
) ([]*models.ConsolidatedOrder, models.ImportRunStats, []Issue) {

	stats := models.ImportRunStats{
		ErpRows:       len(erpRows),
		LogisticsRows: len(logisticsRows),
	}
	var issues []Issue

	orders := make([]*models.ConsolidatedOrder, 0, len(erpRows))
	position := make(map[string]int, len(erpRows))

	for _, erpRow := range erpRows {
		internalId := NormalizeID(erpRow.Get(erpPrimaryCodeFields...))
		if internalId == "" {
			stats.SkippedRows++
			issues = append(issues, Issue{
				Source:    "erp",
				RowNumber: erpRow.Number(),
				Reason:    "linha sem código de pedido",
			})
			continue
		}

		match := FindMatch(erpRow, logisticsRows)
		order := buildOrder(internalId, erpRow, match)

		if manual, ok := overrides[internalId]; ok {
			order.CurrentPhase = manual
			stats.Overridden++
		}

		applySLA(order, settings, holidays, now)

		if idx, seen := position[internalId]; seen {
			orders[idx] = order
			continue
		}
		position[internalId] = len(orders)
		orders = append(orders, order)
	}

	for _, order := range orders {
		if order.MatchKeyUsed == models.MatchKeyMatched {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
		if order.CurrentPhase == models.PhasePicking {
			stats.PickingToday++
		}
	}
	stats.Consolidated = len(orders)

	return orders, stats, issues
}

func buildOrder(internalId string, erpRow ingest.Row, match *ingest.Row) *models.ConsolidatedOrder {
	order := &models.ConsolidatedOrder{
		InternalId:   internalId,
		ExternalId:   NormalizeID(erpRow.Get(erpExternalCodeFields...)),
		CurrentPhase: ClassifyPhase(erpRow, match),
		MatchKeyUsed: models.MatchKeyNone,

		ApprovedAt:            ingest.ParseDateTime(erpRow.Get(erpApprovedFields...)),
		AvailableForBillingAt: ingest.ParseDateTime(erpRow.Get(erpAvailableFields...)),
		BilledAt:              ingest.ParseDateTime(erpRow.Get(erpBilledFields...)),

		Location:   buildLocation(erpRow),
		PersonName: utils.NilIfEmpty(strings.TrimSpace(erpRow.Get(erpPersonFields...))),
		Situation:  utils.NilIfEmpty(strings.TrimSpace(erpRow.Get(erpCommercialFields...))),
	}

	occurrences := []string{strings.TrimSpace(erpRow.Get(erpDetailFields...))}

	if match != nil {
		order.MatchKeyUsed = models.MatchKeyMatched
		order.LogisticsId = utils.NilIfEmpty(strings.TrimSpace(match.Get(logisticsOrderField...)))
		order.ErpCsvId = utils.NilIfEmpty(strings.TrimSpace(match.Get(logisticsErpOrderField...)))

		order.Carrier = utils.NilIfEmpty(strings.TrimSpace(match.Get(logisticsCarrierFields...)))
		order.Route = utils.NilIfEmpty(strings.TrimSpace(match.Get(logisticsRouteFields...)))
		order.Driver = utils.NilIfEmpty(strings.TrimSpace(match.Get(logisticsDriverFields...)))

		order.DispatchedAt = ingest.ParseDateTime(match.Get(logisticsPickupField...))
		order.DeliveredAt = ingest.ParseDateTime(logisticsDeliveryRaw(*match))

		occurrences = append(occurrences, strings.TrimSpace(match.Get(logisticsOccurrenceFields...)))
	}

	// The carrier file is authoritative for the delivery timestamp; the ERP
	// column only fills in when the carrier never reported one.
	if order.DeliveredAt == nil {
		order.DeliveredAt = ingest.ParseDateTime(erpRow.Get(erpDeliveryDateFields...))
	}

	var parts []string
	for _, occ := range occurrences {
		if occ != "" {
			parts = append(parts, occ)
		}
	}
	order.LastOccurrence = utils.NilIfEmpty(strings.Join(parts, " | "))

	return order
}

func buildLocation(erpRow ingest.Row) string {
	neighborhood := strings.TrimSpace(erpRow.Get(erpNeighborhoodFields...))
	municipality := strings.TrimSpace(erpRow.Get(erpMunicipalityFields...))
	municipality = strings.TrimSuffix(municipality, "/RJ")
	municipality = strings.TrimSpace(municipality)

	switch {
	case neighborhood != "" && municipality != "":
		return neighborhood + " - " + municipality
	case neighborhood != "":
		return neighborhood
	case municipality != "":
		return municipality
	default:
		return missingLocation
	}
}

// applySLA fills in the derived timing columns. Open intervals age against
// now; stage durations are only recorded once both endpoints exist.
func applySLA(order *models.ConsolidatedOrder, settings models.SlaSettings, holidays models.HolidaySet, now time.Time) {
	if order.ApprovedAt != nil {
		end := now
		if order.DeliveredAt != nil {
			end = *order.DeliveredAt
		}
		order.BusinessDaysSinceApproval = BusinessDaysBetween(*order.ApprovedAt, end, holidays)
		order.SlaStatus = AggregateStatus(order.BusinessDaysSinceApproval, settings.MaxBusinessDays)

		if order.AvailableForBillingAt != nil {
			hours := BusinessHoursBetween(*order.ApprovedAt, *order.AvailableForBillingAt, holidays)
			order.HoursToAvailable = &hours
		}
		if order.BilledAt != nil {
			hours := BusinessHoursBetween(*order.ApprovedAt, *order.BilledAt, holidays)
			order.HoursToBilled = &hours
		}
	}
	if order.DispatchedAt != nil && order.DeliveredAt != nil {
		hours := BusinessHoursBetween(*order.DispatchedAt, *order.DeliveredAt, holidays)
		order.HoursInTransport = &hours
	}

	alerts := EvaluateSLA(order, settings, holidays, now)
	if alertsJSON, err := utils.MarshalToJSON(alerts); err == nil {
		order.SlaAlertsJSON = []byte(alertsJSON)
	}
}

// ProcessImportRun loads the raw rows of a queued run, consolidates them and
// replaces the order snapshot. It is invoked from the Pub/Sub push handler
// and, in synchronous deployments, directly from the upload handler.
func ProcessImportRun(ctx context.Context, runId uint) error {
	ctx, span := tracer.Start(ctx, "consolidation.ProcessImportRun")
	defer span.End()

	logger := config.GetLogger()
	db := config.GetDB()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, ImportLockKey, 5*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			config.LogError(logger, moduleName, "ProcessImportRun", "another import is already running", runId, err)
			return nil
		} else if err != nil {
			config.LogError(logger, moduleName, "ProcessImportRun", "error obtaining import lock", runId, err)
		} else {
			defer func() { _ = lock.Release(ctx) }()
		}
	}

	run, err := models.GetImportRun(ctx, runId)
	if err != nil {
		return err
	}
	if run.Status == models.ImportRunStatusSuccess || run.Status == models.ImportRunStatusFailed {
		return nil
	}

	if err := run.MarkRunning(ctx, db); err != nil {
		return err
	}

	fail := func(cause error) error {
		config.LogError(logger, moduleName, "ProcessImportRun", "consolidation failed", runId, cause)
		if markErr := run.MarkFinished(ctx, db, models.ImportRunStatusFailed, cause.Error()); markErr != nil {
			config.LogError(logger, moduleName, "ProcessImportRun", "could not mark run failed", runId, markErr)
		}
		return cause
	}

	erpRows, logisticsRows, err := loadRawRows(ctx, runId)
	if err != nil {
		return fail(err)
	}
	if len(erpRows) == 0 {
		return fail(errors.New("run has no erp rows"))
	}

	holidays, err := models.LoadHolidaySet(ctx)
	if err != nil {
		return fail(err)
	}
	settings, err := models.GetSlaSettings(ctx)
	if err != nil {
		return fail(err)
	}
	overrides, err := models.LoadOverrideMap(ctx)
	if err != nil {
		return fail(err)
	}

	now := time.Now()
	orders, stats, issues := Consolidate(erpRows, logisticsRows, overrides, settings, holidays, now)

	if err := models.ClearConsolidatedOrders(ctx); err != nil {
		return fail(err)
	}
	if err := models.UpsertConsolidatedOrders(ctx, orders); err != nil {
		return fail(err)
	}

	if len(issues) > 0 {
		importErrors := make([]*models.ImportError, 0, len(issues))
		for _, issue := range issues {
			importErrors = append(importErrors, &models.ImportError{
				ImportRunId: runId,
				Source:      issue.Source,
				RowNumber:   issue.RowNumber,
				Reason:      issue.Reason,
			})
		}
		for _, chunk := range utils.ChunkSlice(importErrors, config.PageSize) {
			if err := db.WithContext(ctx).Create(chunk).Error; err != nil {
				config.LogError(logger, moduleName, "ProcessImportRun", "could not persist import errors", runId, err)
			}
		}
	}

	var pickingIds []string
	for _, order := range orders {
		if order.CurrentPhase == models.PhasePicking {
			pickingIds = append(pickingIds, order.InternalId)
		}
	}
	if err := models.TrackDailyPicking(ctx, pickingIds, now); err != nil {
		config.LogError(logger, moduleName, "ProcessImportRun", "could not track daily picking", runId, err)
	}

	statsJSON, err := utils.MarshalToJSON(stats)
	if err != nil {
		return fail(err)
	}
	run.StatsJSON = []byte(statsJSON)
	run.RecordCount = stats.Consolidated
	run.ErrorCount = len(issues)
	if err := run.MarkFinished(ctx, db, models.ImportRunStatusSuccess, ""); err != nil {
		return err
	}

	logger.WithField("module", moduleName).
		WithField("runId", runId).
		WithField("records", stats.Consolidated).
		WithField("matched", stats.Matched).
		Info(fmt.Sprintf("import run %d finished", runId))
	return nil
}

func loadRawRows(ctx context.Context, runId uint) ([]ingest.Row, []ingest.Row, error) {
	rawErp, err := models.SelectRawErpRows(ctx, runId)
	if err != nil {
		return nil, nil, err
	}
	rawLogistics, err := models.SelectRawLogisticsRows(ctx, runId)
	if err != nil {
		return nil, nil, err
	}

	erpRows := make([]ingest.Row, 0, len(rawErp))
	for _, raw := range rawErp {
		var fields map[string]string
		if err := utils.UnmarshalFromJSON(raw.DataJSON, &fields); err != nil {
			return nil, nil, fmt.Errorf("erp row %d: %w", raw.RowNumber, err)
		}
		erpRows = append(erpRows, ingest.NewRowFromMap(fields, nil, raw.RowNumber))
	}

	logisticsRows := make([]ingest.Row, 0, len(rawLogistics))
	for _, raw := range rawLogistics {
		var fields map[string]string
		if err := utils.UnmarshalFromJSON(raw.DataJSON, &fields); err != nil {
			return nil, nil, fmt.Errorf("logistics row %d: %w", raw.RowNumber, err)
		}
		var rawValues []string
		if len(raw.RawValuesJSON) > 0 {
			if err := utils.UnmarshalFromJSON(raw.RawValuesJSON, &rawValues); err != nil {
				return nil, nil, fmt.Errorf("logistics row %d: %w", raw.RowNumber, err)
			}
		}
		logisticsRows = append(logisticsRows, ingest.NewRowFromMap(fields, rawValues, raw.RowNumber))
	}

	return erpRows, logisticsRows, nil
}
