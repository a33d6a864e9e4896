// Package encounter defines the mutable record that flows through a
// facility's pipeline from arrival to exit. Status, Stage, ResourceType and
// Disposition are modelled as distinct sum types rather than free-form
// strings so that an illegal (Status, ResourceType) pairing cannot be
// constructed through the exported API — SetFlow rejects combinations
// that violate the pairing invariant instead of trusting the caller.
package encounter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the patient's place in the flow pipeline.
type Status string

const (
	StatusWaiting            Status = "WAITING"
	StatusRoomed             Status = "ROOMED"
	StatusWaitingForResults  Status = "WAITING_FOR_RESULTS"
	StatusAdmittedNoBed      Status = "ADMITTED_NO_BED"
	StatusLWBS               Status = "LWBS"
	StatusDischarged         Status = "DISCHARGED"
)

// Terminal reports whether this status removes the encounter from the
// active set.
func (s Status) Terminal() bool {
	return s == StatusLWBS || s == StatusDischarged
}

// ResourceType is the physical resource an encounter currently occupies.
type ResourceType string

const (
	ResourceNone    ResourceType = "NONE"
	ResourceBed     ResourceType = "BED"
	ResourceChair   ResourceType = "CHAIR"
	ResourceHallway ResourceType = "HALLWAY"
)

// Stage is the clinical pipeline stage within a rooming.
type Stage string

const (
	StageTriage    Stage = "TRIAGE"
	StageAssessing Stage = "ASSESSING"
	StageTesting   Stage = "TESTING"
	StageTreating  Stage = "TREATING"
	StageBoarding  Stage = "BOARDING"
)

// Disposition is the eventual outcome assigned at first rooming.
type Disposition string

const (
	DispositionUnset     Disposition = ""
	DispositionAdmit     Disposition = "ADMIT"
	DispositionDischarge Disposition = "DISCHARGE"
)

// validPairing reports whether the (status, resource) combination is allowed:
// the §3 pairings for the active statuses, plus NONE for the terminal ones. A
// resource assignment that doesn't match its status can never be constructed
// through SetFlow.
func validPairing(status Status, resource ResourceType) bool {
	switch status {
	case StatusWaiting, StatusWaitingForResults:
		return resource == ResourceNone
	case StatusRoomed:
		return resource == ResourceBed || resource == ResourceChair
	case StatusAdmittedNoBed:
		return resource == ResourceHallway
	case StatusLWBS, StatusDischarged:
		return resource == ResourceNone
	default:
		return false
	}
}

// Encounter is one patient's clinical record from arrival to exit.
type Encounter struct {
	ID              uuid.UUID
	FacilityID      string
	PatientAge      int
	Symptom         string
	ClinicalNotes   string
	ArrivalTick     int64
	ArrivalWallclock time.Time

	AssignedCTAS int
	IsSerious    bool

	status   Status
	resource ResourceType
	Stage    Stage

	WaitTimeRemaining      int
	LabTimer               int
	TreatmentTimeRemaining int

	Disposition Disposition
}

// New constructs an Encounter in its initial WAITING/NONE/TRIAGE state.
func New(id uuid.UUID, facilityID string, age int, symptom, notes string, ctas int, serious bool, arrivalTick int64, arrivalWallclock time.Time) *Encounter {
	return &Encounter{
		ID:               id,
		FacilityID:       facilityID,
		PatientAge:       age,
		Symptom:          symptom,
		ClinicalNotes:    notes,
		ArrivalTick:      arrivalTick,
		ArrivalWallclock: arrivalWallclock,
		AssignedCTAS:     ctas,
		IsSerious:        serious,
		status:           StatusWaiting,
		resource:         ResourceNone,
		Stage:            StageTriage,
		Disposition:      DispositionUnset,
	}
}

// Status returns the encounter's current flow status.
func (e *Encounter) Status() Status { return e.status }

// Resource returns the encounter's current resource assignment.
func (e *Encounter) Resource() ResourceType { return e.resource }

// SetFlow transitions status and resource together, rejecting any pairing
// that violates the §3 invariant. Both fields always move in lockstep so the
// encounter can never observably hold an illegal combination, even for a
// single statement.
func (e *Encounter) SetFlow(status Status, resource ResourceType) error {
	if !validPairing(status, resource) {
		return fmt.Errorf("encounter %s: illegal pairing status=%s resource=%s", e.ID, status, resource)
	}
	e.status = status
	e.resource = resource
	return nil
}

// ShortID returns the last four characters of the encounter id, used in
// alert explanations and log lines (P-xxxx).
func (e *Encounter) ShortID() string {
	s := e.ID.String()
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}
