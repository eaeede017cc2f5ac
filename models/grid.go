package models

import "time"

// RiskGridCell is one precomputed score written by the grid worker.
type RiskGridCell struct {
	TS           time.Time `gorm:"column:ts" json:"ts"`
	PersonType   string    `gorm:"column:person_type;primaryKey" json:"person_type"`
	VehicleType  string    `gorm:"column:vehicle_type;primaryKey" json:"vehicle_type"`
	AgeRange     string    `gorm:"column:age_range;primaryKey" json:"age_range"`
	Sex          string    `gorm:"column:sex;primaryKey" json:"sex"`
	District     string    `gorm:"column:district;primaryKey" json:"district"`
	Weekday      string    `gorm:"column:weekday;primaryKey" json:"weekday"`
	TimeWindow   string    `gorm:"column:time_window;primaryKey" json:"time_window"`
	Weather      string    `gorm:"column:weather;primaryKey" json:"weather"`
	Risk         float64   `gorm:"column:risk" json:"risk"`
	ModelVersion string    `gorm:"column:model_version" json:"model_version"`
}

func (RiskGridCell) TableName() string { return "risk_grid" }
