package consolidation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
	"bitbucket.org/camposlog/tracking_backend/utils"
)

// UploadImportHandler accepts the ERP spreadsheet and the optional carrier
// CSV, stores the raw rows as the new snapshot input and queues a
// consolidation run. With IMPORT_SYNC=true the run executes before the
// response; otherwise it is published to Pub/Sub and the handler returns 202.
func UploadImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		erpName, erpData, err := readFormFile(c, "erp_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "erp_file is required"})
			return
		}
		logisticsName, logisticsData, logisticsErr := readFormFile(c, "logistics_file")
		hasLogistics := logisticsErr == nil

		erpRows, err := ingest.ReadErpXLSX(bytes.NewReader(erpData))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not read erp spreadsheet: %v", err)})
			return
		}
		if len(erpRows) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "erp spreadsheet has no data rows"})
			return
		}

		var logisticsRows []ingest.Row
		if hasLogistics {
			logisticsRows, err = ingest.ReadLogisticsCSV(bytes.NewReader(logisticsData))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not read logistics csv: %v", err)})
				return
			}
		}

		importType := models.ImportTypeErp
		fileNames := erpName
		if hasLogistics {
			importType = models.ImportTypeBoth
			fileNames = erpName + ";" + logisticsName
		}

		run := &models.ImportRun{
			Status:        models.ImportRunStatusQueued,
			ImportType:    importType,
			FileNames:     fileNames,
			TriggeredBy:   "upload",
			CorrelationId: utils.CorrelationIdFromContextOrNew(ctx),
		}
		db := config.GetDB()
		if err := db.WithContext(ctx).Create(run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := StoreRunInput(ctx, run.ID, erpRows, logisticsRows); err != nil {
			config.LogError(logger, moduleName, "UploadImportHandler", "could not persist raw rows", run.ID, err)
			_ = run.MarkFinished(ctx, db, models.ImportRunStatusFailed, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if config.ImportArchiveEnabled() {
			if err := utils.ArchiveImportFile(ctx, run.ID, erpName,
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", erpData); err != nil {
				config.LogError(logger, moduleName, "UploadImportHandler", "could not archive erp file", run.ID, err)
			}
			if hasLogistics {
				if err := utils.ArchiveImportFile(ctx, run.ID, logisticsName, "text/csv", logisticsData); err != nil {
					config.LogError(logger, moduleName, "UploadImportHandler", "could not archive logistics file", run.ID, err)
				}
			}
		}

		if config.ImportSyncMode() {
			if err := ProcessImportRun(ctx, run.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			finished, err := models.GetImportRun(ctx, run.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, NewImportRunResponse(finished))
			return
		}

		if err := PublishImportRun(ctx, run.ID); err != nil {
			config.LogError(logger, moduleName, "UploadImportHandler", "could not publish run", run.ID, err)
			_ = run.MarkFinished(ctx, db, models.ImportRunStatusFailed, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, NewImportRunResponse(run))
	}
}

func readFormFile(c *gin.Context, field string) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}

// StoreRunInput replaces the raw-row staging tables with this run's parsed
// input. The upload handler and the CLI importer both feed the worker
// through here.
func StoreRunInput(ctx context.Context, runId uint, erpRows []ingest.Row, logisticsRows []ingest.Row) error {
	if err := models.ClearRawRows(ctx); err != nil {
		return err
	}

	rawErp := make([]*models.RawErpRow, 0, len(erpRows))
	for _, row := range erpRows {
		data, err := utils.MarshalToJSON(row.Fields())
		if err != nil {
			return err
		}
		rawErp = append(rawErp, &models.RawErpRow{
			ImportRunId: runId,
			RowNumber:   row.Number(),
			DataJSON:    []byte(data),
		})
	}
	if err := models.InsertRawErpRows(ctx, rawErp); err != nil {
		return err
	}

	rawLogistics := make([]*models.RawLogisticsRow, 0, len(logisticsRows))
	for _, row := range logisticsRows {
		data, err := utils.MarshalToJSON(row.Fields())
		if err != nil {
			return err
		}
		rawValues, err := utils.MarshalToJSON(row.RawValues())
		if err != nil {
			return err
		}
		rawLogistics = append(rawLogistics, &models.RawLogisticsRow{
			ImportRunId:   runId,
			RowNumber:     row.Number(),
			DataJSON:      []byte(data),
			RawValuesJSON: []byte(rawValues),
		})
	}
	return models.InsertRawLogisticsRows(ctx, rawLogistics)
}

func ListImportRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 20, 100)
		runs, err := models.ListImportRuns(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]ImportRunResponse, 0, len(runs))
		for _, run := range runs {
			out = append(out, NewImportRunResponse(run))
		}
		c.JSON(http.StatusOK, gin.H{"runs": out})
	}
}

func LatestImportRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := models.GetLatestImportRun(c.Request.Context())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no import runs yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, NewImportRunResponse(run))
	}
}

// ListOrdersHandler serves the table view. SLA state is re-evaluated against
// the current clock instead of trusting the snapshot written at import time,
// so an order can turn late between two imports.
func ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB().WithContext(ctx).Model(&models.ConsolidatedOrder{})

		if phase := strings.TrimSpace(c.Query("phase")); phase != "" {
			if !models.IsValidPhase(phase) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown phase"})
				return
			}
			db = db.Where("current_phase = ?", phase)
		}
		if route := strings.TrimSpace(c.Query("route")); route != "" {
			db = db.Where("route = ?", route)
		}
		if driver := strings.TrimSpace(c.Query("driver")); driver != "" {
			db = db.Where("driver = ?", driver)
		}
		if c.Query("missing_delivery") == "true" {
			db = db.Where("delivered_at IS NULL AND current_phase = ?", models.PhaseDelivered)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + search + "%"
			db = db.Where(
				"internal_id LIKE ? OR external_id LIKE ? OR person_name LIKE ? OR location LIKE ?",
				like, like, like, like,
			)
		}

		var total int64
		if err := db.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		limit := intQuery(c, "limit", 100, config.PageSize)
		offset := intQuery(c, "offset", 0, 1<<30)

		var orders []*models.ConsolidatedOrder
		err := db.Order("approved_at IS NULL, approved_at ASC, id ASC").
			Limit(limit).Offset(offset).
			Find(&orders).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		view, err := newOrderView(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]OrderResponse, 0, len(orders))
		for _, order := range orders {
			out = append(out, view.render(order))
		}

		c.JSON(http.StatusOK, OrderListResponse{
			Orders:  out,
			Total:   int(total),
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(out) < int(total),
		})
	}
}

// KanbanHandler groups active orders into the six board columns. Routes
// missing on the carrier file are resolved through the published assignment
// sheet, keyed by the normalized customer name.
func KanbanHandler() gin.HandlerFunc {
	sheet := NewRouteSheetClient()
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orders, err := models.SelectAllConsolidatedOrders(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		routeMap, err := sheet.FetchRouteMap(ctx)
		if err != nil {
			// The board still works without the sheet, just with fewer
			// resolved routes.
			config.LogError(config.GetLogger(), moduleName, "KanbanHandler", "could not fetch route sheet", nil, err)
			routeMap = nil
		}

		view, err := newOrderView(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		columns := make([]KanbanColumn, 0, len(models.PipelinePhases))
		byPhase := make(map[models.Phase][]OrderResponse)
		for _, order := range orders {
			if order.CurrentPhase == models.PhaseCancelled ||
				order.CurrentPhase == models.PhaseUnknown ||
				order.CurrentPhase == models.PhaseReturn {
				continue
			}
			resp := view.render(order)
			if resp.Route == nil && resp.PersonName != nil && routeMap != nil {
				if route, ok := routeMap[NormalizeName(*resp.PersonName)]; ok {
					resp.Route = &route
				}
			}
			byPhase[order.CurrentPhase] = append(byPhase[order.CurrentPhase], resp)
		}
		for _, phase := range models.PipelinePhases {
			columns = append(columns, KanbanColumn{
				Phase:  phase,
				Count:  len(byPhase[phase]),
				Orders: byPhase[phase],
			})
		}

		c.JSON(http.StatusOK, KanbanResponse{Columns: columns, GeneratedAt: time.Now()})
	}
}

// CreateReturnHandler flags one order as a return. The override survives
// re-imports, which would otherwise reclassify the order from its source
// statuses.
func CreateReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		internalId := NormalizeID(c.Param("id"))
		if internalId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var req ReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
			return
		}

		orders, err := models.SelectConsolidatedOrdersByInternalIds(ctx, []string{internalId})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(orders) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		override := &models.OrderOverride{
			InternalId:  internalId,
			ManualPhase: models.PhaseReturn,
			Reason:      strings.TrimSpace(req.Reason),
		}
		if err := models.UpsertOverride(ctx, override); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Reflect the override on the current snapshot without waiting for
		// the next import.
		err = config.GetDB().WithContext(ctx).
			Model(&models.ConsolidatedOrder{}).
			Where("internal_id = ?", internalId).
			Update("current_phase", models.PhaseReturn).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, ReturnResponse{
			InternalId: override.InternalId,
			Reason:     override.Reason,
			Resolution: override.Resolution,
			CreatedAt:  override.CreatedAt,
			UpdatedAt:  override.UpdatedAt,
		})
	}
}

func ListReturnsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		overrides, err := models.ListOverridesByPhase(ctx, models.PhaseReturn)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ids := make([]string, 0, len(overrides))
		for _, o := range overrides {
			ids = append(ids, o.InternalId)
		}
		orders, err := models.SelectConsolidatedOrdersByInternalIds(ctx, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ordersById := make(map[string]*models.ConsolidatedOrder, len(orders))
		for _, order := range orders {
			ordersById[order.InternalId] = order
		}

		view, err := newOrderView(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		out := make([]ReturnResponse, 0, len(overrides))
		for _, o := range overrides {
			resp := ReturnResponse{
				InternalId: o.InternalId,
				Reason:     o.Reason,
				Resolution: o.Resolution,
				CreatedAt:  o.CreatedAt,
				UpdatedAt:  o.UpdatedAt,
			}
			if order, ok := ordersById[o.InternalId]; ok {
				rendered := view.render(order)
				resp.Order = &rendered
			}
			out = append(out, resp)
		}
		c.JSON(http.StatusOK, gin.H{"returns": out})
	}
}

func SetReturnResolutionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		internalId := NormalizeID(c.Param("id"))
		if internalId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var req ReturnResolutionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		resolution := strings.TrimSpace(req.Resolution)
		if resolution != "" &&
			resolution != models.ReturnResolutionCancelled &&
			resolution != models.ReturnResolutionRedelivery {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolution must be Cancelado or Reentrega"})
			return
		}

		if err := models.SetOverrideResolution(ctx, internalId, utils.NilIfEmpty(resolution)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "return not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// orderView carries the per-request inputs of read-side SLA evaluation.
type orderView struct {
	settings models.SlaSettings
	holidays models.HolidaySet
	now      time.Time
}

func newOrderView(c *gin.Context) (*orderView, error) {
	ctx := c.Request.Context()
	settings, err := models.GetSlaSettings(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := models.LoadHolidaySet(ctx)
	if err != nil {
		return nil, err
	}
	return &orderView{settings: settings, holidays: holidays, now: time.Now()}, nil
}

func (v *orderView) render(order *models.ConsolidatedOrder) OrderResponse {
	businessDays := order.BusinessDaysSinceApproval
	slaStatus := order.SlaStatus
	if order.ApprovedAt != nil {
		end := v.now
		if order.DeliveredAt != nil {
			end = *order.DeliveredAt
		}
		businessDays = BusinessDaysBetween(*order.ApprovedAt, end, v.holidays)
		slaStatus = AggregateStatus(businessDays, v.settings.MaxBusinessDays)
	}
	alerts := EvaluateSLA(order, v.settings, v.holidays, v.now)
	if alerts == nil {
		alerts = []string{}
	}

	return OrderResponse{
		ID:           order.ID,
		InternalId:   order.InternalId,
		ExternalId:   order.ExternalId,
		LogisticsId:  order.LogisticsId,
		ErpCsvId:     order.ErpCsvId,
		CurrentPhase: order.CurrentPhase,

		ApprovedAt:            order.ApprovedAt,
		AvailableForBillingAt: order.AvailableForBillingAt,
		BilledAt:              order.BilledAt,
		DispatchedAt:          order.DispatchedAt,
		DeliveredAt:           order.DeliveredAt,

		BusinessDaysSinceApproval: businessDays,
		HoursToAvailable:          order.HoursToAvailable,
		HoursToBilled:             order.HoursToBilled,
		HoursInTransport:          order.HoursInTransport,
		SlaStatus:                 slaStatus,
		SlaAlerts:                 alerts,
		DeliveredLate:             DeliveredLate(order, v.settings, v.holidays),

		Carrier:        order.Carrier,
		Route:          order.Route,
		Driver:         order.Driver,
		LastOccurrence: order.LastOccurrence,
		Location:       order.Location,
		PersonName:     order.PersonName,
		Situation:      order.Situation,
		MatchKeyUsed:   order.MatchKeyUsed,
	}
}

func intQuery(c *gin.Context, key string, def int, max int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
