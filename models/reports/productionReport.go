package reports

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/camposlog/tracking_backend/models"
)

type ProductionReportResponse struct {
	Date           string `json:"date"`
	TrackedOrders  int    `json:"tracked_orders"`
	StillInPicking int    `json:"still_in_picking"`
	Completed      int    `json:"completed"`
	NotFound       int    `json:"not_found"`
}

// GetProductionReport compares today's picking snapshot against the current
// phase of each tracked order. An order counts as completed once it moved
// past picking; orders missing from the snapshot were removed from the source
// files between imports.
func GetProductionReport(ctx context.Context, day time.Time) (*ProductionReportResponse, error) {
	ids, err := models.ListPickingSnapshotIds(ctx, day)
	if err != nil {
		return nil, err
	}
	orders, err := models.SelectConsolidatedOrdersByInternalIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	phaseById := make(map[string]models.Phase, len(orders))
	for _, order := range orders {
		phaseById[order.InternalId] = order.CurrentPhase
	}

	resp := &ProductionReportResponse{
		Date:          day.Format("2006-01-02"),
		TrackedOrders: len(ids),
	}
	for _, id := range ids {
		phase, ok := phaseById[id]
		if !ok {
			resp.NotFound++
			continue
		}
		if phase == models.PhasePicking {
			resp.StillInPicking++
		} else {
			resp.Completed++
		}
	}
	return resp, nil
}

func ProductionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		day := time.Now()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			day = parsed
		}
		resp, err := GetProductionReport(c.Request.Context(), day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
