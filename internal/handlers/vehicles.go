package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fleetpro/fleet-maintenance/internal/fleet"
	"github.com/fleetpro/fleet-maintenance/internal/models"
)

// VehicleHandler handles fleet requests
type VehicleHandler struct {
	fleet *fleet.Fleet
}

// NewVehicleHandler creates a new fleet handler
func NewVehicleHandler(f *fleet.Fleet) *VehicleHandler {
	return &VehicleHandler{fleet: f}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFleetError maps fleet and validation errors onto status codes.
func writeFleetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fleet.ErrVehicleNotFound):
		http.Error(w, "Vehicle not found", http.StatusNotFound)
	case errors.Is(err, fleet.ErrUsageDecrease):
		http.Error(w, "Usage counter cannot decrease", http.StatusConflict)
	case errors.Is(err, models.ErrMissingBrand),
		errors.Is(err, models.ErrMissingModel),
		errors.Is(err, models.ErrInvalidVehicleType),
		errors.Is(err, models.ErrInvalidMaintenanceType),
		errors.Is(err, models.ErrNegativeUsage),
		errors.Is(err, models.ErrInvalidInterval):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Failed to persist fleet", http.StatusInternalServerError)
	}
}

// List returns the whole fleet
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.fleet.Vehicles())
}

// Create adds a vehicle to the fleet
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var v models.Vehicle
	if err := json.Unmarshal(body, &v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.fleet.AddVehicle(r.Context(), v)
	if err != nil {
		writeFleetError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns one vehicle by id
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.fleet.Vehicle(r.PathValue("id"))
	if err != nil {
		writeFleetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Update replaces a vehicle wholesale
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var v models.Vehicle
	if err := json.Unmarshal(body, &v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	v.ID = r.PathValue("id")

	if err := h.fleet.UpdateVehicle(r.Context(), v); err != nil {
		writeFleetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Delete removes a vehicle and its history
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.fleet.DeleteVehicle(r.Context(), r.PathValue("id")); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UsageUpdateRequest is a new meter reading.
type UsageUpdateRequest struct {
	Value float64 `json:"value"`
}

// UpdateUsage sets the vehicle's usage counter
func (h *VehicleHandler) UpdateUsage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req UsageUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.fleet.RecordUsageUpdate(r.Context(), r.PathValue("id"), req.Value); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMaintenance records a completed maintenance intervention
func (h *VehicleHandler) AddMaintenance(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var rec models.MaintenanceRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	if err := h.fleet.ApplyMaintenanceRecord(r.Context(), r.PathValue("id"), rec); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetMaintenance returns a vehicle's maintenance history, most recent first
func (h *VehicleHandler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	v, err := h.fleet.Vehicle(r.PathValue("id"))
	if err != nil {
		writeFleetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.MaintenanceHistory)
}

// GetStatus returns the due-status verdict for one vehicle
func (h *VehicleHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.fleet.Status(r.PathValue("id"), time.Now())
	if err != nil {
		writeFleetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetStats returns fleet-level aggregate statistics
func (h *VehicleHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.fleet.Stats(time.Now()))
}
