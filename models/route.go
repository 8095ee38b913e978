package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Route maps a municipality + neighborhood pair onto a delivery route name.
// Cost aggregation is the only consumer.
type Route struct {
	ID           uint      `gorm:"primary_key" json:"id"`
	Municipality string    `gorm:"uniqueIndex:idx_route_area,priority:1;size:100;not null" json:"municipality"`
	Neighborhood string    `gorm:"uniqueIndex:idx_route_area,priority:2;size:100;not null" json:"neighborhood"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RouteCost holds the unit monetary cost of delivering one order on a route.
type RouteCost struct {
	ID        uint            `gorm:"primary_key" json:"id"`
	Route     string          `gorm:"uniqueIndex;size:100;not null" json:"route"`
	Cost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RouteAreaKey builds the lookup key used when resolving an order's route from
// its municipality and neighborhood.
func RouteAreaKey(municipality, neighborhood string) string {
	return strings.ToUpper(strings.TrimSpace(municipality)) + " - " + strings.ToUpper(strings.TrimSpace(neighborhood))
}

// LoadRouteAreaLookup returns municipality+neighborhood → route name.
func LoadRouteAreaLookup(ctx context.Context) (map[string]string, error) {
	db := config.GetDB()
	var routes []*Route
	if err := db.WithContext(ctx).Find(&routes).Error; err != nil {
		return nil, err
	}
	lookup := make(map[string]string, len(routes))
	for _, r := range routes {
		if r.Municipality == "" || r.Neighborhood == "" {
			continue
		}
		lookup[RouteAreaKey(r.Municipality, r.Neighborhood)] = r.Name
	}
	return lookup, nil
}

// LoadRouteCostLookup returns route name → unit cost.
func LoadRouteCostLookup(ctx context.Context) (map[string]decimal.Decimal, error) {
	db := config.GetDB()
	var costs []*RouteCost
	if err := db.WithContext(ctx).Find(&costs).Error; err != nil {
		return nil, err
	}
	lookup := make(map[string]decimal.Decimal, len(costs))
	for _, c := range costs {
		lookup[c.Route] = c.Cost
	}
	return lookup, nil
}

func ListRouteAreas(ctx context.Context) ([]*Route, error) {
	db := config.GetDB()
	var routes []*Route
	err := db.WithContext(ctx).Order("municipality ASC, neighborhood ASC").Find(&routes).Error
	return routes, err
}

func UpsertRouteAreas(ctx context.Context, routes []*Route) error {
	if len(routes) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "municipality"}, {Name: "neighborhood"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(routes).Error
}

func ListRouteCosts(ctx context.Context) ([]*RouteCost, error) {
	db := config.GetDB()
	var costs []*RouteCost
	err := db.WithContext(ctx).Order("route ASC").Find(&costs).Error
	return costs, err
}

func UpsertRouteCosts(ctx context.Context, costs []*RouteCost) error {
	if len(costs) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route"}},
		DoUpdates: clause.AssignmentColumns([]string{"cost", "updated_at"}),
	}).Create(costs).Error
}
