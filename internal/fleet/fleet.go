package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fleetpro/fleet-maintenance/internal/maintenance"
	"github.com/fleetpro/fleet-maintenance/internal/models"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrUsageDecrease   = errors.New("usage counter cannot decrease")
)

// Store persists the whole vehicle collection as one unit. Load returns an
// empty slice (nil error) when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]models.Vehicle, error)
	Save(ctx context.Context, vehicles []models.Vehicle) error
}

// Fleet owns the vehicle collection. All mutations go through it, each one
// followed by a whole-collection save through the Store. A single mutex
// serializes writers; it is never held across the Store call.
type Fleet struct {
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
	order    []string // insertion order, for stable listing
	store    Store
}

// New hydrates a fleet from the store.
func New(ctx context.Context, store Store) (*Fleet, error) {
	f := &Fleet{
		vehicles: make(map[string]*models.Vehicle),
		store:    store,
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	for i := range loaded {
		v := loaded[i]
		f.vehicles[v.ID] = &v
		f.order = append(f.order, v.ID)
	}
	return f, nil
}

// AddVehicle validates and inserts a vehicle, assigning an ID when absent.
// Road vehicles without an inspection interval get the 24-month default.
func (f *Fleet) AddVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	if v.Type == models.VehicleTypeRoad && v.InspectionIntervalMonths == 0 {
		v.InspectionIntervalMonths = models.DefaultInspectionIntervalMonths
	}
	if err := v.Validate(); err != nil {
		return models.Vehicle{}, err
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.MaintenanceHistory == nil {
		v.MaintenanceHistory = []models.MaintenanceRecord{}
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	f.mu.Lock()
	if _, exists := f.vehicles[v.ID]; exists {
		f.mu.Unlock()
		return models.Vehicle{}, fmt.Errorf("vehicle %s already exists", v.ID)
	}
	stored := v
	f.vehicles[v.ID] = &stored
	f.order = append(f.order, v.ID)
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	return v, f.save(ctx, snapshot)
}

// UpdateVehicle replaces the stored vehicle wholesale. Callers must supply
// the complete record; there is no field merge.
func (f *Fleet) UpdateVehicle(ctx context.Context, v models.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	existing, ok := f.vehicles[v.ID]
	if !ok {
		f.mu.Unlock()
		return ErrVehicleNotFound
	}
	if v.MaintenanceHistory == nil {
		v.MaintenanceHistory = []models.MaintenanceRecord{}
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()
	stored := v
	f.vehicles[v.ID] = &stored
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	return f.save(ctx, snapshot)
}

// DeleteVehicle removes the vehicle and its entire maintenance history.
func (f *Fleet) DeleteVehicle(ctx context.Context, id string) error {
	f.mu.Lock()
	if _, ok := f.vehicles[id]; !ok {
		f.mu.Unlock()
		return ErrVehicleNotFound
	}
	delete(f.vehicles, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	return f.save(ctx, snapshot)
}

// RecordUsageUpdate sets the vehicle's usage counter to a new meter
// reading. Decreases are rejected; a meter replacement goes through
// UpdateVehicle instead.
func (f *Fleet) RecordUsageUpdate(ctx context.Context, id string, value float64) error {
	if value < 0 {
		return models.ErrNegativeUsage
	}

	f.mu.Lock()
	v, ok := f.vehicles[id]
	if !ok {
		f.mu.Unlock()
		return ErrVehicleNotFound
	}
	if value < v.CurrentUsage {
		f.mu.Unlock()
		return ErrUsageDecrease
	}
	v.CurrentUsage = value
	v.UpdatedAt = time.Now()
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	return f.save(ctx, snapshot)
}

// ApplyMaintenanceRecord prepends the record to the vehicle's history and
// moves the usage counter to the record's reading.
func (f *Fleet) ApplyMaintenanceRecord(ctx context.Context, vehicleID string, rec models.MaintenanceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	f.mu.Lock()
	v, ok := f.vehicles[vehicleID]
	if !ok {
		f.mu.Unlock()
		return ErrVehicleNotFound
	}
	v.MaintenanceHistory = append([]models.MaintenanceRecord{rec}, v.MaintenanceHistory...)
	v.CurrentUsage = rec.UsageValue
	v.UpdatedAt = time.Now()
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	return f.save(ctx, snapshot)
}

// Vehicle returns a copy of one vehicle.
func (f *Fleet) Vehicle(id string) (models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return models.Vehicle{}, ErrVehicleNotFound
	}
	return copyVehicle(v), nil
}

// Vehicles returns a snapshot of the collection in insertion order.
func (f *Fleet) Vehicles() []models.Vehicle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Status evaluates one vehicle's due status against `now`.
func (f *Fleet) Status(id string, now time.Time) (maintenance.Status, error) {
	v, err := f.Vehicle(id)
	if err != nil {
		return maintenance.Status{}, err
	}
	return maintenance.Evaluate(v, now), nil
}

// Stats aggregates fleet-level figures against `now`.
func (f *Fleet) Stats(now time.Time) maintenance.Stats {
	return maintenance.ComputeStats(f.Vehicles(), now)
}

// snapshotLocked deep-copies the collection. Callers hold f.mu.
func (f *Fleet) snapshotLocked() []models.Vehicle {
	out := make([]models.Vehicle, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, copyVehicle(f.vehicles[id]))
	}
	return out
}

func copyVehicle(v *models.Vehicle) models.Vehicle {
	c := *v
	c.MaintenanceHistory = append([]models.MaintenanceRecord{}, v.MaintenanceHistory...)
	if v.LastInspectionDate != nil {
		d := *v.LastInspectionDate
		c.LastInspectionDate = &d
	}
	return c
}

// save writes the snapshot through the store. The in-memory mutation stands
// even when the save fails; the next successful save re-serializes the
// whole collection.
func (f *Fleet) save(ctx context.Context, snapshot []models.Vehicle) error {
	if err := f.store.Save(ctx, snapshot); err != nil {
		log.WithError(err).Error("Failed to persist fleet")
		return fmt.Errorf("save fleet: %w", err)
	}
	return nil
}
