package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderOverride pins an operator-chosen phase for one order. Overrides survive
// re-imports: consolidation re-applies them on every run, bypassing the
// classifier entirely.
type OrderOverride struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	InternalId  string    `gorm:"uniqueIndex;size:64;not null" json:"internal_id"`
	ManualPhase Phase     `gorm:"size:50;not null" json:"manual_phase"`
	Reason      string    `gorm:"type:text" json:"reason"`
	Resolution  *string   `gorm:"size:50" json:"resolution"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoadOverrideMap returns internal id → manual phase for the consolidator.
func LoadOverrideMap(ctx context.Context) (map[string]Phase, error) {
	db := config.GetDB()
	var overrides []*OrderOverride
	if err := db.WithContext(ctx).Find(&overrides).Error; err != nil {
		return nil, err
	}
	m := make(map[string]Phase, len(overrides))
	for _, o := range overrides {
		m[o.InternalId] = o.ManualPhase
	}
	return m, nil
}

func ListOverridesByPhase(ctx context.Context, phase Phase) ([]*OrderOverride, error) {
	db := config.GetDB()
	var overrides []*OrderOverride
	err := db.WithContext(ctx).Where("manual_phase = ?", phase).Find(&overrides).Error
	return overrides, err
}

func UpsertOverride(ctx context.Context, override *OrderOverride) error {
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "internal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"manual_phase", "reason", "resolution", "updated_at"}),
	}).Create(override).Error
}

func SetOverrideResolution(ctx context.Context, internalId string, resolution *string) error {
	db := config.GetDB()
	result := db.WithContext(ctx).
		Model(&OrderOverride{}).
		Where("internal_id = ?", internalId).
		Update("resolution", resolution)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
