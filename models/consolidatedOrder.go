package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/utils"
	"gorm.io/gorm/clause"
)

// ConsolidatedOrder is the single per-order record the views read. The whole
// table is cleared and rewritten by every import run; only InternalId survives
// as identity across runs.
type ConsolidatedOrder struct {
	ID         uint   `gorm:"primary_key" json:"id"`
	InternalId string `gorm:"uniqueIndex;size:64;not null" json:"internal_id"`
	ExternalId string `gorm:"size:64" json:"external_id"`
	// References into the logistics source, kept for audit/debugging.
	LogisticsId *string `gorm:"size:64" json:"logistics_id"`
	ErpCsvId    *string `gorm:"size:64" json:"erp_csv_id"`

	CurrentPhase Phase `gorm:"index;size:50;not null" json:"current_phase"`

	ApprovedAt            *time.Time `json:"approved_at"`
	AvailableForBillingAt *time.Time `json:"available_for_billing_at"`
	BilledAt              *time.Time `json:"billed_at"`
	DispatchedAt          *time.Time `json:"dispatched_at"`
	DeliveredAt           *time.Time `json:"delivered_at"`

	BusinessDaysSinceApproval int       `json:"business_days_since_approval"`
	HoursToAvailable          *float64  `json:"hours_to_available"`
	HoursToBilled             *float64  `json:"hours_to_billed"`
	HoursInTransport          *float64  `json:"hours_in_transport"`
	SlaStatus                 SlaStatus `gorm:"size:20" json:"sla_status"`
	SlaAlertsJSON             []byte    `gorm:"type:json" json:"sla_alerts"`

	Carrier        *string `gorm:"size:100" json:"carrier"`
	Route          *string `gorm:"size:100" json:"route"`
	Driver         *string `gorm:"size:100" json:"driver"`
	LastOccurrence *string `gorm:"type:text" json:"last_occurrence"`
	Location       string  `gorm:"size:255" json:"location"`
	PersonName     *string `gorm:"size:255" json:"person_name"`
	Situation      *string `gorm:"size:100" json:"situation"`
	MatchKeyUsed   string  `gorm:"size:20" json:"match_key_used"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ClearConsolidatedOrders wipes the table ahead of a full re-import.
func ClearConsolidatedOrders(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Where("id > ?", 0).Delete(&ConsolidatedOrder{}).Error
}

// UpsertConsolidatedOrders writes records in chunks of config.PageSize,
// resolving duplicate internal ids by overwriting (last write wins).
func UpsertConsolidatedOrders(ctx context.Context, records []*ConsolidatedOrder) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	for _, chunk := range utils.ChunkSlice(records, config.PageSize) {
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "internal_id"}},
			UpdateAll: true,
		}).Create(chunk).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SelectAllConsolidatedOrders pages through the whole table in approval order.
// The server caps result sets at config.PageSize per query, so read-side
// aggregations loop until a short page.
func SelectAllConsolidatedOrders(ctx context.Context) ([]*ConsolidatedOrder, error) {
	db := config.GetDB()
	var all []*ConsolidatedOrder
	offset := 0
	for {
		var page []*ConsolidatedOrder
		err := db.WithContext(ctx).
			Order("approved_at IS NULL, approved_at ASC, id ASC").
			Offset(offset).
			Limit(config.PageSize).
			Find(&page).Error
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < config.PageSize {
			return all, nil
		}
		offset += config.PageSize
	}
}

func SelectConsolidatedOrdersByInternalIds(ctx context.Context, ids []string) ([]*ConsolidatedOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := config.GetDB()
	var orders []*ConsolidatedOrder
	err := db.WithContext(ctx).
		Where("internal_id IN ?", utils.UniqueSlice(ids)).
		Find(&orders).Error
	return orders, err
}
