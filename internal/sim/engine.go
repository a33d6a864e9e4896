// Package sim implements the per-session discrete-event ED flow simulator:
// one network of facilities, advanced one tick at a time by a single caller.
// An Engine is not safe for concurrent use — internal/session serializes
// access to each Engine behind its own driver slot, the same single-threaded-
// cooperative-simulation model the teacher's matching engine uses for a
// single order book, generalized here to a whole facility network.
package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/solaris-clearae/edflow/internal/capacity"
	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/intel"
	"github.com/solaris-clearae/edflow/internal/seeds"
	"github.com/solaris-clearae/edflow/pkg/simclock"
)

const (
	// StartingSimHour is the simulated hour every new session's clock begins at (§4.1).
	StartingSimHour = 8
	// HourAdvanceProbability is the per-tick chance of rolling the sim clock forward by one hour.
	HourAdvanceProbability = 1.0 / 60.0

	historyCap    = 24
	losHistoryCap = 150

	lwbsExitTTL      = 300
	dischargeExitTTL = 50
)

// ExitRecord is one terminal transition appended to the session's exit
// ledger (§4.8). Unlike Encounter, it is a value type — once logged it is
// never mutated except for its TTL countdown.
type ExitRecord struct {
	ID           uuid.UUID
	FacilityID   string
	AssignedCTAS int
	Status       encounter.Status
	Stage        encounter.Stage
	Disposition  encounter.Disposition
	TTL          int
}

// HourSample is one entry in the session's hourly active-census history ring.
type HourSample struct {
	Hour   int
	Active int
}

// Engine is one session's entire simulated facility network: the active
// encounter set, the clinical auditor, and the rolling history/exit/LOS
// ledgers the vitals snapshot is built from.
type Engine struct {
	clock   *simclock.Source
	auditor *intel.Auditor
	log     *logrus.Entry

	active map[uuid.UUID]*encounter.Encounter
	alerts []intel.Alert

	totalProcessed int
	lwbsCount      int
	simHour        int

	history     []HourSample
	recentExits []ExitRecord
	losHistory  []float64
}

// New returns an Engine seeded deterministically, with its clock started at
// §4.1's 08:00 and an empty active set.
func New(seed int64, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		clock:   simclock.New(seed),
		auditor: intel.NewAuditor(),
		log:     log,
		active:  make(map[uuid.UUID]*encounter.Encounter),
		simHour: StartingSimHour,
	}
}

// Tick advances the engine by exactly one simulated minute: clock, arrivals,
// pipeline stage transitions, exit-ledger maintenance, and the admission
// planner, in that fixed order (§5). An error means a tick fault (§7) — the
// transitions applied before the fault remain, and the caller must not retry
// the tick; it moves on to the next one.
func (e *Engine) Tick() error {
	e.clock.Advance()
	e.advanceSimHour()

	if err := e.generateArrivals(); err != nil {
		return fmt.Errorf("arrivals: %w", err)
	}

	census, toRemove, err := e.advanceStages()
	if err != nil {
		return fmt.Errorf("stage advance: %w", err)
	}
	e.removeEncounters(toRemove)
	e.pruneRecentExits()

	if err := e.runAdmissionPlanner(census); err != nil {
		return fmt.Errorf("admission planner: %w", err)
	}
	return nil
}

func (e *Engine) advanceSimHour() {
	if !e.clock.Chance(HourAdvanceProbability) {
		return
	}
	e.simHour = (e.simHour + 1) % 24
	e.history = append(e.history, HourSample{Hour: e.simHour, Active: len(e.active)})
	if len(e.history) > historyCap {
		e.history = e.history[len(e.history)-historyCap:]
	}
}

func (e *Engine) removeEncounters(ids []uuid.UUID) {
	for _, id := range ids {
		delete(e.active, id)
	}
}

func (e *Engine) pruneRecentExits() {
	kept := e.recentExits[:0]
	for _, rec := range e.recentExits {
		if rec.TTL > 0 {
			kept = append(kept, rec)
		}
	}
	for i := range kept {
		kept[i].TTL--
	}
	e.recentExits = kept
}

func (e *Engine) logExit(enc *encounter.Encounter, status encounter.Status, destination string, disposition encounter.Disposition, ttl int) {
	e.recentExits = append(e.recentExits, ExitRecord{
		ID:           enc.ID,
		FacilityID:   enc.FacilityID,
		AssignedCTAS: enc.AssignedCTAS,
		Status:       status,
		Stage:        enc.Stage,
		Disposition:  disposition,
		TTL:          ttl,
	})

	if status == encounter.StatusDischarged {
		losTicks := e.clock.Tick() - enc.ArrivalTick
		losHours := float64(losTicks) / 60.0
		e.losHistory = append(e.losHistory, losHours)
		if len(e.losHistory) > losHistoryCap {
			e.losHistory = e.losHistory[len(e.losHistory)-losHistoryCap:]
		}
	}

	e.log.WithFields(logrus.Fields{
		"patient":     fmt.Sprintf("P-%s", enc.ShortID()),
		"facility":    enc.FacilityID,
		"status":      status,
		"destination": destination,
	}).Info("encounter exit")
}

// scaledTimer divides a baseline clinical timer by the productivity factor
// and floors it, the GLOSSARY's definition of "scaled" applied uniformly
// (§13 decision) rather than only at first rooming.
func scaledTimer(base int) int {
	return int(float64(base) / capacity.ProductivityFactor)
}

func baseLabTimer(hour int) int {
	if capacity.ShiftForHour(hour) == capacity.ShiftNight {
		return 90
	}
	return 45
}

func shiftBudgets(simHour int) map[string]float64 {
	budgets := make(map[string]float64, len(seeds.Facilities))
	for _, f := range seeds.Facilities {
		staffing := capacity.StaffingFor(f.Resources, simHour)
		budgets[f.ID] = capacity.DischargeProbability(staffing.MDCount)
	}
	return budgets
}
