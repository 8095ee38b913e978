package models

import (
	"log"

	"bitbucket.org/camposlog/tracking_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&ImportRun{}, &ImportError{},
		&RawErpRow{}, &RawLogisticsRow{},
		&ConsolidatedOrder{},
		&OrderOverride{},
		&Holiday{}, &SlaSettings{},
		&Route{}, &RouteCost{},
		&DailyPickingSnapshot{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
