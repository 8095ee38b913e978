package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"gorm.io/gorm"
)

const slaSettingsCacheKey = "SlaSettings"

// SlaSettings is a single-row configuration record. It is loaded once per
// batch run and passed into the evaluator explicitly; nothing reads it
// mid-computation.
type SlaSettings struct {
	ID uint `gorm:"primary_key" json:"id"`
	// Global limit for the aggregate on-time/late status, in business days.
	MaxBusinessDays int `gorm:"not null" json:"max_business_days" binding:"required,min=1"`
	// Per-phase limits, in business hours since approval.
	PickingHours    float64 `gorm:"not null" json:"picking_hours" binding:"required,gt=0"`
	PackingHours    float64 `gorm:"not null" json:"packing_hours" binding:"required,gt=0"`
	AvailableHours  float64 `gorm:"not null" json:"available_hours" binding:"required,gt=0"`
	BilledHours     float64 `gorm:"not null" json:"billed_hours" binding:"required,gt=0"`
	DispatchedHours float64 `gorm:"not null" json:"dispatched_hours" binding:"required,gt=0"`
	DeliveredHours  float64 `gorm:"not null" json:"delivered_hours" binding:"required,gt=0"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func DefaultSlaSettings() SlaSettings {
	return SlaSettings{
		MaxBusinessDays: 5,
		PickingHours:    24,
		PackingHours:    24,
		AvailableHours:  48,
		BilledHours:     48,
		DispatchedHours: 96,
		DeliveredHours:  120,
	}
}

// GetSlaSettings reads the singleton row, falling back to defaults when it was
// never saved. Redis is a read-through cache; a miss is not an error.
func GetSlaSettings(ctx context.Context) (SlaSettings, error) {
	var settings SlaSettings
	if found, err := config.GetRedisObject(slaSettingsCacheKey, &settings); err == nil && found {
		return settings, nil
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Order("id ASC").Take(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return DefaultSlaSettings(), nil
	}
	if err != nil {
		return DefaultSlaSettings(), err
	}
	_ = config.SetRedisObject(slaSettingsCacheKey, settings, 24*time.Hour)
	return settings, nil
}

func SaveSlaSettings(ctx context.Context, settings *SlaSettings) error {
	db := config.GetDB()
	var existing SlaSettings
	err := db.WithContext(ctx).Order("id ASC").Take(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		if err := db.WithContext(ctx).Create(settings).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		settings.ID = existing.ID
		if err := db.WithContext(ctx).Save(settings).Error; err != nil {
			return err
		}
	}
	return config.RemoveRedisKey(slaSettingsCacheKey)
}
