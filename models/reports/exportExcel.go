package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/camposlog/tracking_backend/models"
	"bitbucket.org/camposlog/tracking_backend/utils"
)

var exportHeaders = []string{
	"Pedido", "Cód Externo", "Fase", "Status SLA", "Dias Úteis",
	"Aprovado em", "Disponível em", "Faturado em", "Coletado em", "Entregue em",
	"Transportadora", "Rota", "Motorista", "Localização", "Pessoa", "Última Ocorrência",
}

// ExportOrdersHandler streams the consolidated table as an XLSX download.
func ExportOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := models.SelectAllConsolidatedOrders(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		sheet := "Pedidos"
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		for col, header := range exportHeaders {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet, cell, header)
		}

		for i, order := range orders {
			values := []interface{}{
				order.InternalId,
				order.ExternalId,
				string(order.CurrentPhase),
				string(order.SlaStatus),
				order.BusinessDaysSinceApproval,
				formatStamp(order.ApprovedAt),
				formatStamp(order.AvailableForBillingAt),
				formatStamp(order.BilledAt),
				formatStamp(order.DispatchedAt),
				formatStamp(order.DeliveredAt),
				utils.DereferencePtr(order.Carrier, ""),
				utils.DereferencePtr(order.Route, ""),
				utils.DereferencePtr(order.Driver, ""),
				order.Location,
				utils.DereferencePtr(order.PersonName, ""),
				utils.DereferencePtr(order.LastOccurrence, ""),
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
				_ = f.SetCellValue(sheet, cell, value)
			}
		}

		fileName := fmt.Sprintf("pedidos_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+fileName)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write export"})
		}
	}
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}
