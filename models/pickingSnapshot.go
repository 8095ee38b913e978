package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"gorm.io/gorm/clause"
)

// DailyPickingSnapshot records that an order was in Picking on a given date.
// The production report compares the snapshot against current phases to count
// how many of today's picking orders have moved on.
type DailyPickingSnapshot struct {
	ID            uint      `gorm:"primary_key" json:"id"`
	InternalId    string    `gorm:"uniqueIndex:idx_picking_day,priority:1;size:64;not null" json:"internal_id"`
	ReferenceDate time.Time `gorm:"uniqueIndex:idx_picking_day,priority:2;type:date;not null" json:"reference_date"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TrackDailyPicking inserts today's picking orders, ignoring ones already
// tracked for the date.
func TrackDailyPicking(ctx context.Context, internalIds []string, day time.Time) error {
	if len(internalIds) == 0 {
		return nil
	}
	day = pickingReferenceDate(day)
	rows := make([]*DailyPickingSnapshot, 0, len(internalIds))
	for _, id := range internalIds {
		rows = append(rows, &DailyPickingSnapshot{InternalId: id, ReferenceDate: day})
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
}

// pickingReferenceDate drops the time of day while keeping the wall date in
// the run's own location. Truncating to a 24h boundary would snap to the UTC
// day instead, shifting evening runs onto the next date.
func pickingReferenceDate(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location())
}

func ListPickingSnapshotIds(ctx context.Context, day time.Time) ([]string, error) {
	db := config.GetDB()
	var rows []*DailyPickingSnapshot
	err := db.WithContext(ctx).
		Where("reference_date = ?", day.Format("2006-01-02")).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.InternalId)
	}
	return ids, nil
}
