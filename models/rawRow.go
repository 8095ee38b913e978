package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/utils"
)

// Raw import rows are kept only for the lifetime of the current snapshot:
// every run deletes them before inserting its own. They exist so a bad
// consolidation can be diagnosed against what was actually uploaded.

type RawErpRow struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	ImportRunId uint      `gorm:"index;not null" json:"import_run_id"`
	RowNumber   int       `json:"row_number"`
	DataJSON    []byte    `gorm:"type:json" json:"data"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type RawLogisticsRow struct {
	ID          uint   `gorm:"primary_key" json:"id"`
	ImportRunId uint   `gorm:"index;not null" json:"import_run_id"`
	RowNumber   int    `json:"row_number"`
	DataJSON    []byte `gorm:"type:json" json:"data"`
	// Positional cell values, preserved because one delivery-date column is
	// addressed by index when headers are unreliable.
	RawValuesJSON []byte    `gorm:"type:json" json:"raw_values"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func ClearRawRows(ctx context.Context) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id > ?", 0).Delete(&RawErpRow{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Where("id > ?", 0).Delete(&RawLogisticsRow{}).Error
}

func InsertRawErpRows(ctx context.Context, rows []*RawErpRow) error {
	if len(rows) == 0 {
		return nil
	}
	db := config.GetDB()
	for _, chunk := range utils.ChunkSlice(rows, config.PageSize) {
		if err := db.WithContext(ctx).Create(chunk).Error; err != nil {
			return err
		}
	}
	return nil
}

func InsertRawLogisticsRows(ctx context.Context, rows []*RawLogisticsRow) error {
	if len(rows) == 0 {
		return nil
	}
	db := config.GetDB()
	for _, chunk := range utils.ChunkSlice(rows, config.PageSize) {
		if err := db.WithContext(ctx).Create(chunk).Error; err != nil {
			return err
		}
	}
	return nil
}

func SelectRawErpRows(ctx context.Context, importRunId uint) ([]*RawErpRow, error) {
	db := config.GetDB()
	var result []*RawErpRow
	for offset := 0; ; offset += config.PageSize {
		var page []*RawErpRow
		err := db.WithContext(ctx).
			Where("import_run_id = ?", importRunId).
			Order("row_number ASC").
			Limit(config.PageSize).Offset(offset).
			Find(&page).Error
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(page) < config.PageSize {
			return result, nil
		}
	}
}

func SelectRawLogisticsRows(ctx context.Context, importRunId uint) ([]*RawLogisticsRow, error) {
	db := config.GetDB()
	var result []*RawLogisticsRow
	for offset := 0; ; offset += config.PageSize {
		var page []*RawLogisticsRow
		err := db.WithContext(ctx).
			Where("import_run_id = ?", importRunId).
			Order("row_number ASC").
			Limit(config.PageSize).Offset(offset).
			Find(&page).Error
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(page) < config.PageSize {
			return result, nil
		}
	}
}
