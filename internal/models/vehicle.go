package models

import (
	"errors"
	"time"
)

// VehicleType determines which interval fields apply and the unit of the
// usage counter: kilometers for road vehicles, operating hours for
// construction machines.
type VehicleType string

const (
	VehicleTypeRoad         VehicleType = "road"
	VehicleTypeConstruction VehicleType = "construction"
)

// DefaultInspectionIntervalMonths is applied to road vehicles created
// without an explicit inspection interval.
const DefaultInspectionIntervalMonths = 24

// IsValidVehicleType checks if a vehicle type is valid
func IsValidVehicleType(t VehicleType) bool {
	return t == VehicleTypeRoad || t == VehicleTypeConstruction
}

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                        string              `bson:"_id" json:"id"`
	VehicleNumber             string              `bson:"vehicle_number" json:"vehicle_number"`
	Photo                     string              `bson:"photo,omitempty" json:"photo,omitempty"`
	Brand                     string              `bson:"brand" json:"brand"`
	Model                     string              `bson:"model" json:"model"`
	LicensePlate              string              `bson:"license_plate,omitempty" json:"license_plate,omitempty"`
	RegistrationDate          time.Time           `bson:"registration_date" json:"registration_date"`
	PurchaseDate              time.Time           `bson:"purchase_date" json:"purchase_date"`
	Type                      VehicleType         `bson:"type" json:"type"`
	CurrentUsage              float64             `bson:"current_usage" json:"current_usage"`                             // km or hours
	MaintenanceFrequency      float64             `bson:"maintenance_frequency" json:"maintenance_frequency"`             // interval in km or hours
	MaintenanceIntervalMonths float64             `bson:"maintenance_interval_months" json:"maintenance_interval_months"` // interval in months
	LastInspectionDate        *time.Time          `bson:"last_inspection_date,omitempty" json:"last_inspection_date,omitempty"`
	InspectionIntervalMonths  float64             `bson:"inspection_interval_months,omitempty" json:"inspection_interval_months,omitempty"` // road vehicles only, 0 = unset
	MaintenanceHistory        []MaintenanceRecord `bson:"maintenance_history" json:"maintenance_history"`                                   // most recent first
	CreatedAt                 time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt                 time.Time           `bson:"updated_at" json:"updated_at"`
}

var (
	ErrMissingBrand       = errors.New("brand is required")
	ErrMissingModel       = errors.New("model is required")
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
	ErrNegativeUsage      = errors.New("usage counter cannot be negative")
	ErrInvalidInterval    = errors.New("maintenance intervals must be positive")
)

// Validate checks that the vehicle's required fields and intervals are
// usable before it is admitted into the fleet.
func (v *Vehicle) Validate() error {
	if v.Brand == "" {
		return ErrMissingBrand
	}
	if v.Model == "" {
		return ErrMissingModel
	}
	if !IsValidVehicleType(v.Type) {
		return ErrInvalidVehicleType
	}
	if v.CurrentUsage < 0 {
		return ErrNegativeUsage
	}
	if v.MaintenanceFrequency <= 0 || v.MaintenanceIntervalMonths <= 0 {
		return ErrInvalidInterval
	}
	if v.InspectionIntervalMonths < 0 {
		return ErrInvalidInterval
	}
	return nil
}

// LastMaintenance returns the most recent maintenance record. History is
// kept most-recent-first, so this is position 0.
func (v *Vehicle) LastMaintenance() (MaintenanceRecord, bool) {
	if len(v.MaintenanceHistory) == 0 {
		return MaintenanceRecord{}, false
	}
	return v.MaintenanceHistory[0], true
}

// UsageUnit returns the unit label for the vehicle's usage counter.
func (v *Vehicle) UsageUnit() string {
	if v.Type == VehicleTypeConstruction {
		return "h"
	}
	return "km"
}
