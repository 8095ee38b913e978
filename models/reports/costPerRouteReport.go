package reports

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bitbucket.org/camposlog/tracking_backend/models"
)

type CostPerRouteResponse struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Routes     []RouteCostRow `json:"routes"`
	Unresolved int            `json:"unresolved"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	TotalCount int            `json:"total_count"`
}

type RouteCostRow struct {
	Route      string          `json:"route"`
	Deliveries int             `json:"deliveries"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// Occurrence markers of orders still waiting on carrier assignment. They are
// parked, not delivered, and must not be costed.
var waitingOccurrences = []string{
	"aguardando motorista",
	"aguardando geração",
	"aguardando geracao",
}

// GetCostPerRouteReport prices delivered orders by route over a date range.
// The route of an order comes from its carrier file when present, otherwise
// from the municipality + neighborhood mapping table; orders that resolve to
// no route are surfaced as unresolved rather than silently dropped.
func GetCostPerRouteReport(ctx context.Context, start, end time.Time) (*CostPerRouteResponse, error) {
	orders, err := models.SelectAllConsolidatedOrders(ctx)
	if err != nil {
		return nil, err
	}
	areaLookup, err := models.LoadRouteAreaLookup(ctx)
	if err != nil {
		return nil, err
	}
	costLookup, err := models.LoadRouteCostLookup(ctx)
	if err != nil {
		return nil, err
	}

	resp := &CostPerRouteResponse{
		Start:     start.Format("2006-01-02"),
		End:       end.Format("2006-01-02"),
		TotalCost: decimal.Zero,
	}
	counts := make(map[string]int)

	for _, order := range orders {
		if order.CurrentPhase == models.PhaseCancelled {
			continue
		}
		if isWaitingOnCarrier(order) {
			continue
		}
		if order.DeliveredAt == nil {
			continue
		}
		delivered := *order.DeliveredAt
		if delivered.Before(start) || delivered.After(end) {
			continue
		}

		route := costReportRoute(order, areaLookup)
		if route == "" {
			resp.Unresolved++
			continue
		}
		counts[route]++
	}

	for route, deliveries := range counts {
		unitCost := costLookup[route]
		total := unitCost.Mul(decimal.NewFromInt(int64(deliveries)))
		resp.Routes = append(resp.Routes, RouteCostRow{
			Route:      route,
			Deliveries: deliveries,
			UnitCost:   unitCost,
			TotalCost:  total,
		})
		resp.TotalCost = resp.TotalCost.Add(total)
		resp.TotalCount += deliveries
	}
	sort.Slice(resp.Routes, func(i, j int) bool {
		return resp.Routes[i].Route < resp.Routes[j].Route
	})

	return resp, nil
}

func isWaitingOnCarrier(order *models.ConsolidatedOrder) bool {
	if order.LastOccurrence == nil {
		return false
	}
	occurrence := strings.ToLower(*order.LastOccurrence)
	for _, marker := range waitingOccurrences {
		if strings.Contains(occurrence, marker) {
			return true
		}
	}
	return false
}

func costReportRoute(order *models.ConsolidatedOrder, areaLookup map[string]string) string {
	if order.Route != nil && *order.Route != "" {
		return *order.Route
	}
	// Location is stored as "neighborhood - municipality".
	parts := strings.SplitN(order.Location, " - ", 2)
	if len(parts) != 2 {
		return ""
	}
	return areaLookup[models.RouteAreaKey(parts[1], parts[0])]
}

func CostPerRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := parseDateParam(c.Query("start"), time.Now().AddDate(0, -1, 0))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
		end, err := parseDateParam(c.Query("end"), time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
			return
		}
		// Make the end bound inclusive of the whole day.
		end = end.Add(24*time.Hour - time.Nanosecond)

		resp, err := GetCostPerRouteReport(c.Request.Context(), start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func parseDateParam(raw string, def time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Date(def.Year(), def.Month(), def.Day(), 0, 0, 0, 0, def.Location()), nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}
