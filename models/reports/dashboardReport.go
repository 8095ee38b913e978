package reports

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/models"
)

type DashboardResponse struct {
	TotalOrders      int                `json:"total_orders"`
	PhaseCounts      map[string]int     `json:"phase_counts"`
	OnTime           int                `json:"on_time"`
	Late             int                `json:"late"`
	RoutePerformance []RoutePerformance `json:"route_performance"`
	DeliveriesPerDay []DeliveriesPerDay `json:"deliveries_per_day"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

type RoutePerformance struct {
	Route  string `json:"route"`
	OnTime int    `json:"on_time"`
	Late   int    `json:"late"`
}

type DeliveriesPerDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GetDashboardReport aggregates the current snapshot into the numbers the
// landing page shows. An order is counted late when it has active SLA alerts
// or its business-day age exceeds the configured maximum; delivered orders
// carry no alerts, so they are measured against the day limit and the
// end-to-end delivery hours instead.
func GetDashboardReport(ctx context.Context, routeMap map[string]string) (*DashboardResponse, error) {
	orders, err := models.SelectAllConsolidatedOrders(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := models.GetSlaSettings(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := models.LoadHolidaySet(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	resp := &DashboardResponse{
		PhaseCounts: make(map[string]int),
		GeneratedAt: now,
	}
	routePerf := make(map[string]*RoutePerformance)
	deliveriesPerDay := make(map[string]int)

	for _, order := range orders {
		resp.PhaseCounts[string(order.CurrentPhase)]++
		if order.CurrentPhase == models.PhaseCancelled || order.CurrentPhase == models.PhaseUnknown {
			continue
		}
		resp.TotalOrders++

		late := isOrderLate(order, settings, holidays, now)
		if late {
			resp.Late++
		} else {
			resp.OnTime++
		}

		if route := resolveRoute(order, routeMap); route != "" {
			perf, ok := routePerf[route]
			if !ok {
				perf = &RoutePerformance{Route: route}
				routePerf[route] = perf
			}
			if late {
				perf.Late++
			} else {
				perf.OnTime++
			}
		}

		if order.DeliveredAt != nil {
			deliveriesPerDay[order.DeliveredAt.Format("2006-01-02")]++
		}
	}

	for _, perf := range routePerf {
		resp.RoutePerformance = append(resp.RoutePerformance, *perf)
	}
	sort.Slice(resp.RoutePerformance, func(i, j int) bool {
		return resp.RoutePerformance[i].Route < resp.RoutePerformance[j].Route
	})

	for day, count := range deliveriesPerDay {
		resp.DeliveriesPerDay = append(resp.DeliveriesPerDay, DeliveriesPerDay{Date: day, Count: count})
	}
	sort.Slice(resp.DeliveriesPerDay, func(i, j int) bool {
		return resp.DeliveriesPerDay[i].Date < resp.DeliveriesPerDay[j].Date
	})

	return resp, nil
}

func isOrderLate(order *models.ConsolidatedOrder, settings models.SlaSettings, holidays models.HolidaySet, now time.Time) bool {
	if order.ApprovedAt == nil {
		return false
	}
	end := now
	if order.DeliveredAt != nil {
		end = *order.DeliveredAt
	}
	days := consolidation.BusinessDaysBetween(*order.ApprovedAt, end, holidays)
	if days > settings.MaxBusinessDays {
		return true
	}
	if order.CurrentPhase == models.PhaseDelivered {
		return consolidation.DeliveredLate(order, settings, holidays)
	}
	return len(consolidation.EvaluateSLA(order, settings, holidays, now)) > 0
}

func resolveRoute(order *models.ConsolidatedOrder, routeMap map[string]string) string {
	if order.Route != nil && *order.Route != "" {
		return *order.Route
	}
	if order.PersonName != nil && routeMap != nil {
		if route, ok := routeMap[consolidation.NormalizeName(*order.PersonName)]; ok {
			return route
		}
	}
	return ""
}

func DashboardHandler() gin.HandlerFunc {
	sheet := consolidation.NewRouteSheetClient()
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		routeMap, err := sheet.FetchRouteMap(ctx)
		if err != nil {
			config.LogError(config.GetLogger(), "reports", "DashboardHandler", "could not fetch route sheet", nil, err)
			routeMap = nil
		}
		resp, err := GetDashboardReport(ctx, routeMap)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
