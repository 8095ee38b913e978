package models

import (
	"context"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"gorm.io/gorm"
)

// ImportRun tracks one batch import end to end. The importer reports a single
// aggregate status; per-row problems land in ImportError without failing the run.
type ImportRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Status        string     `gorm:"index;size:20;not null" json:"status"`
	ImportType    string     `gorm:"size:20;not null" json:"import_type"`
	FileNames     string     `gorm:"size:512" json:"file_names"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	RecordCount   int        `json:"record_count"`
	ErrorCount    int        `json:"error_count"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message"`
	CorrelationId string     `gorm:"size:64" json:"correlation_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type ImportError struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	ImportRunId uint      `gorm:"index;not null" json:"import_run_id"`
	Source      string    `gorm:"size:20" json:"source"`
	RowNumber   int       `json:"row_number"`
	Reason      string    `gorm:"type:text" json:"reason"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ImportRunStats is serialized into StatsJSON when a run finishes.
type ImportRunStats struct {
	ErpRows       int `json:"erp_rows"`
	LogisticsRows int `json:"logistics_rows"`
	Consolidated  int `json:"consolidated"`
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	Overridden    int `json:"overridden"`
	SkippedRows   int `json:"skipped_rows"`
	PickingToday  int `json:"picking_today"`
}

func GetImportRun(ctx context.Context, id uint) (*ImportRun, error) {
	db := config.GetDB()
	var run ImportRun
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func GetLatestImportRun(ctx context.Context) (*ImportRun, error) {
	db := config.GetDB()
	var run ImportRun
	err := db.WithContext(ctx).Order("id DESC").Take(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func ListImportRuns(ctx context.Context, limit int) ([]*ImportRun, error) {
	if limit <= 0 || limit > config.PageSize {
		limit = 50
	}
	db := config.GetDB()
	var runs []*ImportRun
	err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *ImportRun) MarkRunning(ctx context.Context, db *gorm.DB) error {
	now := time.Now()
	if r.StartedAt == nil {
		r.StartedAt = &now
	}
	r.Status = ImportRunStatusRunning
	return db.WithContext(ctx).Model(r).Updates(map[string]interface{}{
		"status":     ImportRunStatusRunning,
		"started_at": r.StartedAt,
	}).Error
}

func (r *ImportRun) MarkFinished(ctx context.Context, db *gorm.DB, status string, errMessage string) error {
	now := time.Now()
	r.Status = status
	r.FinishedAt = &now
	if r.StartedAt != nil {
		r.DurationMs = now.Sub(*r.StartedAt).Milliseconds()
	}
	return db.WithContext(ctx).Model(r).Updates(map[string]interface{}{
		"status":        status,
		"error_message": errMessage,
		"stats_json":    r.StatsJSON,
		"record_count":  r.RecordCount,
		"error_count":   r.ErrorCount,
		"finished_at":   r.FinishedAt,
		"duration_ms":   r.DurationMs,
	}).Error
}
