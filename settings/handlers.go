// Package settings exposes the operational configuration endpoints: SLA
// limits, the holiday calendar, route costs and the published route
// assignment sheet.
package settings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/models"
	"bitbucket.org/camposlog/tracking_backend/utils"
)

func GetSlaSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetSlaSettings(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func UpdateSlaSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var settings models.SlaSettings
		if err := c.ShouldBindJSON(&settings); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := models.SaveSlaSettings(c.Request.Context(), &settings); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

type holidayRequest struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description"`
}

func ListHolidaysHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		holidays, err := models.ListHolidays(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"holidays": holidays})
	}
}

func CreateHolidayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req holidayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
			return
		}
		date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		holiday := &models.Holiday{Date: date, Description: strings.TrimSpace(req.Description)}
		if err := models.UpsertHolidays(c.Request.Context(), []*models.Holiday{holiday}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, holiday)
	}
}

func DeleteHolidayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holiday id"})
			return
		}
		if err := models.DeleteHoliday(c.Request.Context(), uint(id)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "holiday not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type routeCostRequest struct {
	Route string `json:"route" binding:"required"`
	Cost  string `json:"cost" binding:"required"`
}

func ListRouteCostsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		costs, err := models.ListRouteCosts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"route_costs": costs})
	}
}

func UpdateRouteCostsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs []routeCostRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if len(reqs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one route cost is required"})
			return
		}

		costs := make([]*models.RouteCost, 0, len(reqs))
		for _, req := range reqs {
			cost, err := utils.ParseDecimal(req.Cost)
			if err != nil || cost.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cost must be a non-negative decimal"})
				return
			}
			costs = append(costs, &models.RouteCost{
				Route: strings.TrimSpace(req.Route),
				Cost:  cost,
			})
		}
		if err := models.UpsertRouteCosts(c.Request.Context(), costs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"route_costs": costs})
	}
}

type routeAreaRequest struct {
	Municipality string `json:"municipality" binding:"required"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	Route        string `json:"route" binding:"required"`
}

func ListRouteAreasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		areas, err := models.ListRouteAreas(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"route_areas": areas})
	}
}

func UpdateRouteAreasHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs []routeAreaRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if len(reqs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one route area is required"})
			return
		}

		areas := make([]*models.Route, 0, len(reqs))
		for _, req := range reqs {
			areas = append(areas, &models.Route{
				Municipality: strings.ToUpper(strings.TrimSpace(req.Municipality)),
				Neighborhood: strings.ToUpper(strings.TrimSpace(req.Neighborhood)),
				Name:         strings.TrimSpace(req.Route),
			})
		}
		if err := models.UpsertRouteAreas(c.Request.Context(), areas); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"route_areas": areas})
	}
}

// RoutesHandler serves the current driver-to-route assignments from the
// published sheet.
func RoutesHandler() gin.HandlerFunc {
	sheet := consolidation.NewRouteSheetClient()
	return func(c *gin.Context) {
		routes, err := sheet.FetchRouteMap(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"routes": routes})
	}
}
