package sim

import (
	"github.com/google/uuid"

	"github.com/solaris-clearae/edflow/internal/capacity"
	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

// PatientSnapshot is one row of the vitals snapshot's patient list — either
// a still-active encounter (TTL -1) or a recent exit counting down.
type PatientSnapshot struct {
	ID           uuid.UUID
	FacilityID   string
	AssignedCTAS int
	Status       encounter.Status
	Stage        encounter.Stage
	Disposition  encounter.Disposition
	Resource     encounter.ResourceType
	TTL          int
}

// Vitals is the atomic per-tick snapshot §4.9 defines. It carries no alert
// count; §6's `/status` handler adds total_alerts from TotalAlerts.
type Vitals struct {
	Census           map[string]int
	Processed        int
	LWBSCount        int
	SimHour          int
	History          []HourSample
	NEDOCS           int
	HallwayPatients  int
	AvgLOSHours      float64
	Patients         []PatientSnapshot
}

// Vitals builds a fresh snapshot from the engine's current state. It never
// returns a live handle into engine-owned slices/maps — every field is
// copied so a caller holding a Vitals cannot observe a future tick's
// mutation (§5's "consistent per-session snapshot").
func (e *Engine) Vitals() Vitals {
	census := make(map[string]int, len(seeds.Facilities))
	hallwayPatients := 0
	patients := make([]PatientSnapshot, 0, len(e.active)+len(e.recentExits))

	for _, enc := range e.active {
		switch enc.Status() {
		case encounter.StatusRoomed, encounter.StatusAdmittedNoBed:
			census[enc.FacilityID]++
		}
		if enc.Status() == encounter.StatusAdmittedNoBed {
			hallwayPatients++
		}
		patients = append(patients, PatientSnapshot{
			ID:           enc.ID,
			FacilityID:   enc.FacilityID,
			AssignedCTAS: enc.AssignedCTAS,
			Status:       enc.Status(),
			Stage:        enc.Stage,
			Disposition:  enc.Disposition,
			Resource:     enc.Resource(),
			TTL:          -1,
		})
	}
	for _, rec := range e.recentExits {
		patients = append(patients, PatientSnapshot{
			ID:           rec.ID,
			FacilityID:   rec.FacilityID,
			AssignedCTAS: rec.AssignedCTAS,
			Status:       rec.Status,
			Stage:        rec.Stage,
			Disposition:  rec.Disposition,
			TTL:          rec.TTL,
		})
	}

	history := make([]HourSample, len(e.history))
	copy(history, e.history)

	return Vitals{
		Census:          census,
		Processed:       e.totalProcessed,
		LWBSCount:       e.lwbsCount,
		SimHour:         e.simHour,
		History:         history,
		NEDOCS:          capacity.NEDOCS(len(e.active), seeds.TotalCapacity()),
		HallwayPatients: hallwayPatients,
		AvgLOSHours:     capacity.AverageLOSHours(e.losHistory),
		Patients:        patients,
	}
}

// TotalAlerts returns the number of alerts the auditor has logged for this
// session so far — the `/status` handler's `total_alerts` field (§6).
func (e *Engine) TotalAlerts() int { return len(e.alerts) }

// Alerts returns a copy of the session's full alert log, newest last.
func (e *Engine) Alerts() []AlertSnapshot {
	out := make([]AlertSnapshot, len(e.alerts))
	for i, a := range e.alerts {
		out[i] = AlertSnapshot{
			ID:           a.ID,
			EncounterID:  a.EncounterID,
			RuleViolated: a.RuleViolated,
			Severity:     a.Severity,
			ArrivalTick:  a.ArrivalTick,
			Explanation:  a.Explanation,
		}
	}
	return out
}

// AlertSnapshot is the boundary-facing copy of an intel.Alert.
type AlertSnapshot struct {
	ID           uuid.UUID
	EncounterID  uuid.UUID
	RuleViolated string
	Severity     seeds.RiskLevel
	ArrivalTick  int64
	Explanation  string
}

// CurrentCensus returns the facility's current occupied count, used by the
// `/facilities` handler to augment each static record (§6).
func (e *Engine) CurrentCensus(facilityID string) int {
	n := 0
	for _, enc := range e.active {
		if enc.FacilityID != facilityID {
			continue
		}
		switch enc.Status() {
		case encounter.StatusRoomed, encounter.StatusAdmittedNoBed:
			n++
		}
	}
	return n
}
