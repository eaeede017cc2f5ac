package models

import (
	"time"

	"road-risk-api/risk"
)

// EstimateRecord is one scored scenario in a user's history. Scenario fields
// are stored normalized.
type EstimateRecord struct {
	ID           uint               `gorm:"column:id;primaryKey" json:"id"`
	UserID       uint               `gorm:"column:user_id;index" json:"user_id"`
	CreatedAt    time.Time          `gorm:"column:created_at;index" json:"created_at"`
	PersonType   string             `gorm:"column:person_type" json:"person_type"`
	VehicleType  string             `gorm:"column:vehicle_type" json:"vehicle_type"`
	AgeRange     string             `gorm:"column:age_range" json:"age_range"`
	Sex          string             `gorm:"column:sex" json:"sex"`
	District     string             `gorm:"column:district" json:"district"`
	Weekday      string             `gorm:"column:weekday" json:"weekday"`
	TimeWindow   string             `gorm:"column:time_window" json:"time_window"`
	Weather      string             `gorm:"column:weather" json:"weather"`
	Risk         float64            `gorm:"column:risk" json:"risk"`
	Alternatives []risk.Alternative `gorm:"column:alternatives;serializer:json" json:"alternatives"`
	ModelVersion string             `gorm:"column:model_version" json:"model_version"`
}

func (EstimateRecord) TableName() string { return "estimates" }

func NewEstimateRecord(userID uint, est *risk.Estimate) EstimateRecord {
	s := est.Scenario
	return EstimateRecord{
		UserID:       userID,
		PersonType:   s.PersonType,
		VehicleType:  s.VehicleType,
		AgeRange:     s.AgeRange,
		Sex:          s.Sex,
		District:     s.District,
		Weekday:      s.Weekday,
		TimeWindow:   string(s.TimeWindow),
		Weather:      s.Weather,
		Risk:         est.Risk,
		Alternatives: est.Alternatives,
		ModelVersion: est.ModelVersion,
	}
}
