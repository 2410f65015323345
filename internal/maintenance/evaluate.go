package maintenance

import (
	"time"

	"github.com/fleetpro/fleet-maintenance/internal/models"
)

// Reason identifies which check tripped the overdue verdict. When several
// checks trip at once a single reason is reported: legal inspection wins
// over the usage counter, which wins over calendar time.
type Reason string

const (
	ReasonNone       Reason = "none"
	ReasonInspection Reason = "inspection"
	ReasonUsage      Reason = "usage"
	ReasonTime       Reason = "time"
)

// Status is the due-status verdict for a single vehicle.
type Status struct {
	Overdue bool   `json:"overdue"`
	Reason  Reason `json:"reason"`
}

// earlyWarningMargin flags a vehicle at 90% of an interval consumed rather
// than only past the hard limit.
const earlyWarningMargin = 0.9

// daysPerMonth is the average Gregorian month length. Elapsed-time checks
// divide day counts by this constant instead of doing calendar-month
// arithmetic.
const daysPerMonth = 30.44

// monthsBetween returns the elapsed time from `from` to `now` in average
// months. Negative when `from` is in the future.
func monthsBetween(from, now time.Time) float64 {
	return now.Sub(from).Hours() / 24 / daysPerMonth
}

// Evaluate decides whether a vehicle is overdue for maintenance or legal
// inspection at the reference time `now`. Three independent checks run:
//
//   - usage: counter gap since the last maintenance exceeds 90% of the
//     usage interval
//   - time: elapsed months since the last maintenance exceed 90% of the
//     calendar interval
//   - inspection: road vehicles only, elapsed months since the last
//     inspection exceed 90% of the inspection interval
//
// With no maintenance history the baseline is a zero counter reading at the
// purchase date. Missing or non-positive intervals disable their check; no
// input makes Evaluate fail. The vehicle is never mutated.
func Evaluate(v models.Vehicle, now time.Time) Status {
	lastUsage := 0.0
	lastDate := v.PurchaseDate
	if rec, ok := v.LastMaintenance(); ok {
		lastUsage = rec.UsageValue
		lastDate = rec.Date
	}

	usageOverdue := v.MaintenanceFrequency > 0 &&
		v.CurrentUsage-lastUsage > v.MaintenanceFrequency*earlyWarningMargin

	timeOverdue := v.MaintenanceIntervalMonths > 0 &&
		monthsBetween(lastDate, now) > v.MaintenanceIntervalMonths*earlyWarningMargin

	inspectionOverdue := false
	if v.Type == models.VehicleTypeRoad && v.LastInspectionDate != nil && v.InspectionIntervalMonths > 0 {
		inspectionOverdue = monthsBetween(*v.LastInspectionDate, now) > v.InspectionIntervalMonths*earlyWarningMargin
	}

	st := Status{Reason: ReasonNone}
	if !usageOverdue && !timeOverdue && !inspectionOverdue {
		return st
	}
	st.Overdue = true
	switch {
	case inspectionOverdue:
		st.Reason = ReasonInspection
	case usageOverdue:
		st.Reason = ReasonUsage
	default:
		st.Reason = ReasonTime
	}
	return st
}

// Stats are derived fleet-level figures; nothing here is stored.
type Stats struct {
	Total         int     `json:"total"`
	Road          int     `json:"road"`
	Construction  int     `json:"construction"`
	Overdue       int     `json:"overdue"`
	CompliancePct float64 `json:"compliance_pct"`
}

// ComputeStats evaluates every vehicle against `now` and aggregates counts
// and the compliance percentage. An empty fleet reports 0%, not a division
// fault.
func ComputeStats(vehicles []models.Vehicle, now time.Time) Stats {
	s := Stats{Total: len(vehicles)}
	for _, v := range vehicles {
		switch v.Type {
		case models.VehicleTypeRoad:
			s.Road++
		case models.VehicleTypeConstruction:
			s.Construction++
		}
		if Evaluate(v, now).Overdue {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompliancePct = float64(s.Total-s.Overdue) / float64(s.Total) * 100
	}
	return s
}
