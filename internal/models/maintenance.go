package models

import (
	"errors"
	"time"
)

// MaintenanceType classifies a maintenance intervention.
type MaintenanceType string

const (
	MaintenanceScheduled     MaintenanceType = "scheduled"
	MaintenanceExtraordinary MaintenanceType = "extraordinary"
)

// IsValidMaintenanceType checks if a maintenance type is valid
func IsValidMaintenanceType(t MaintenanceType) bool {
	return t == MaintenanceScheduled || t == MaintenanceExtraordinary
}

// MaintenanceRecord represents one completed maintenance intervention on a
// vehicle. The filter/oil booleans are descriptive only; the due-status
// evaluation reads Date and UsageValue.
type MaintenanceRecord struct {
	ID            string          `bson:"id" json:"id"`
	Date          time.Time       `bson:"date" json:"date"`
	Type          MaintenanceType `bson:"type" json:"type"`
	PartsReplaced string          `bson:"parts_replaced" json:"parts_replaced"`
	OilChange     bool            `bson:"oil_change" json:"oil_change"`
	AirFilter     bool            `bson:"air_filter" json:"air_filter"`
	OilFilter     bool            `bson:"oil_filter" json:"oil_filter"`
	FuelFilter    bool            `bson:"fuel_filter" json:"fuel_filter"`
	UsageValue    float64         `bson:"usage_value" json:"usage_value"` // km or hours at time of maintenance
}

var ErrInvalidMaintenanceType = errors.New("invalid maintenance type")

// Validate checks the record before it is applied to a vehicle.
func (r *MaintenanceRecord) Validate() error {
	if !IsValidMaintenanceType(r.Type) {
		return ErrInvalidMaintenanceType
	}
	if r.UsageValue < 0 {
		return ErrNegativeUsage
	}
	return nil
}
