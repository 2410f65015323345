package models

import (
	"testing"
	"time"
)

func TestIsValidVehicleType(t *testing.T) {
	tests := []struct {
		name     string
		vtype    VehicleType
		expected bool
	}{
		{"road type", VehicleTypeRoad, true},
		{"construction type", VehicleTypeConstruction, true},
		{"invalid type", "boat", false},
		{"empty type", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidVehicleType(tt.vtype)
			if result != tt.expected {
				t.Errorf("IsValidVehicleType(%s) = %v, want %v", tt.vtype, result, tt.expected)
			}
		})
	}
}

func TestIsValidMaintenanceType(t *testing.T) {
	tests := []struct {
		name     string
		mtype    MaintenanceType
		expected bool
	}{
		{"scheduled type", MaintenanceScheduled, true},
		{"extraordinary type", MaintenanceExtraordinary, true},
		{"invalid type", "emergency", false},
		{"empty type", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidMaintenanceType(tt.mtype)
			if result != tt.expected {
				t.Errorf("IsValidMaintenanceType(%s) = %v, want %v", tt.mtype, result, tt.expected)
			}
		})
	}
}

func validVehicle() Vehicle {
	return Vehicle{
		Brand:                     "Iveco",
		Model:                     "Daily",
		Type:                      VehicleTypeRoad,
		PurchaseDate:              time.Now().AddDate(-1, 0, 0),
		CurrentUsage:              42000,
		MaintenanceFrequency:      15000,
		MaintenanceIntervalMonths: 12,
	}
}

func TestVehicle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(v *Vehicle)
		wantErr error
	}{
		{"valid vehicle", func(v *Vehicle) {}, nil},
		{"missing brand", func(v *Vehicle) { v.Brand = "" }, ErrMissingBrand},
		{"missing model", func(v *Vehicle) { v.Model = "" }, ErrMissingModel},
		{"bad type", func(v *Vehicle) { v.Type = "boat" }, ErrInvalidVehicleType},
		{"negative usage", func(v *Vehicle) { v.CurrentUsage = -1 }, ErrNegativeUsage},
		{"zero frequency", func(v *Vehicle) { v.MaintenanceFrequency = 0 }, ErrInvalidInterval},
		{"negative month interval", func(v *Vehicle) { v.MaintenanceIntervalMonths = -6 }, ErrInvalidInterval},
		{"negative inspection interval", func(v *Vehicle) { v.InspectionIntervalMonths = -24 }, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validVehicle()
			tt.mutate(&v)
			if err := v.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaintenanceRecord_Validate(t *testing.T) {
	rec := MaintenanceRecord{Type: MaintenanceScheduled, UsageValue: 100}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	rec.Type = "emergency"
	if err := rec.Validate(); err != ErrInvalidMaintenanceType {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidMaintenanceType)
	}

	rec.Type = MaintenanceExtraordinary
	rec.UsageValue = -10
	if err := rec.Validate(); err != ErrNegativeUsage {
		t.Errorf("Validate() = %v, want %v", err, ErrNegativeUsage)
	}
}

func TestVehicle_LastMaintenance(t *testing.T) {
	v := validVehicle()
	if _, ok := v.LastMaintenance(); ok {
		t.Error("LastMaintenance() = ok, want none with empty history")
	}

	v.MaintenanceHistory = []MaintenanceRecord{
		{ID: "newest", UsageValue: 40000},
		{ID: "older", UsageValue: 25000},
	}
	rec, ok := v.LastMaintenance()
	if !ok || rec.ID != "newest" {
		t.Errorf("LastMaintenance() = %+v, want record at position 0", rec)
	}
}

func TestVehicle_UsageUnit(t *testing.T) {
	v := validVehicle()
	if v.UsageUnit() != "km" {
		t.Errorf("UsageUnit() = %s, want km for road vehicle", v.UsageUnit())
	}
	v.Type = VehicleTypeConstruction
	if v.UsageUnit() != "h" {
		t.Errorf("UsageUnit() = %s, want h for construction vehicle", v.UsageUnit())
	}
}
