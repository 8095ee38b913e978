package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Holiday struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	Date        time.Time `gorm:"uniqueIndex;type:date;not null" json:"date"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// HolidaySet answers "is this calendar date a holiday" keyed by yyyy-mm-dd.
type HolidaySet map[string]struct{}

func (s HolidaySet) Contains(t time.Time) bool {
	_, ok := s[t.Format("2006-01-02")]
	return ok
}

func NewHolidaySet(dates ...time.Time) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s[d.Format("2006-01-02")] = struct{}{}
	}
	return s
}

func LoadHolidaySet(ctx context.Context) (HolidaySet, error) {
	db := config.GetDB()
	var holidays []*Holiday
	if err := db.WithContext(ctx).Order("date ASC").Find(&holidays).Error; err != nil {
		return nil, err
	}
	s := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		s[h.Date.Format("2006-01-02")] = struct{}{}
	}
	return s, nil
}

func ListHolidays(ctx context.Context) ([]*Holiday, error) {
	db := config.GetDB()
	var holidays []*Holiday
	err := db.WithContext(ctx).Order("date ASC").Find(&holidays).Error
	return holidays, err
}

// UpsertHolidays inserts the given dates, leaving already registered ones
// untouched.
func UpsertHolidays(ctx context.Context, holidays []*Holiday) error {
	if len(holidays) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(holidays).Error
}

func DeleteHoliday(ctx context.Context, id uint) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Delete(&Holiday{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
