package sim

import (
	"sort"

	"github.com/google/uuid"

	"github.com/solaris-clearae/edflow/internal/capacity"
	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

const (
	assessingToTestingProbability = 1.0 / 15.0
	resultsReleaseProbability     = 0.8

	lwbsCTAS5Threshold = 180
	lwbsCTAS4Threshold = 240
	lwbsCTAS3Threshold = 600

	admitProbability = 0.15
)

// advanceStages walks every active encounter once, tallying the live census
// as it goes, advancing ROOMED/ADMITTED_NO_BED clinical stages, incrementing
// WAITING wait timers and applying the LWBS policy, and decrementing
// WAITING_FOR_RESULTS lab timers. It returns the census (handed to the
// admission planner) and the set of encounter ids to remove for a terminal
// exit this tick.
func (e *Engine) advanceStages() (map[string]*capacity.Census, []uuid.UUID, error) {
	census := make(map[string]*capacity.Census, len(seeds.Facilities))
	for _, f := range seeds.Facilities {
		census[f.ID] = &capacity.Census{}
	}
	budgets := shiftBudgets(e.simHour)

	var toRemove []uuid.UUID

	// Walk in (arrival_tick, facility) order rather than map order so the
	// sequence of RNG draws is reproducible for a given seed.
	ordered := make([]*encounter.Encounter, 0, len(e.active))
	for _, enc := range e.active {
		ordered = append(ordered, enc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].ArrivalTick != ordered[j].ArrivalTick {
			return ordered[i].ArrivalTick < ordered[j].ArrivalTick
		}
		return ordered[i].FacilityID < ordered[j].FacilityID
	})

	for _, enc := range ordered {
		id := enc.ID
		switch enc.Status() {
		case encounter.StatusRoomed, encounter.StatusAdmittedNoBed:
			census[enc.FacilityID].Tally(capacity.ResourceType(enc.Resource()))
			if err := e.advanceRoomedStage(enc, budgets[enc.FacilityID], &toRemove); err != nil {
				return nil, nil, err
			}
		case encounter.StatusWaitingForResults:
			enc.LabTimer--
		case encounter.StatusWaiting:
			enc.WaitTimeRemaining++
			if shouldLeaveWithoutBeingSeen(enc) {
				if err := enc.SetFlow(encounter.StatusLWBS, encounter.ResourceNone); err != nil {
					return nil, nil, err
				}
				e.lwbsCount++
				toRemove = append(toRemove, id)
				e.logExit(enc, encounter.StatusLWBS, "EXIT", enc.Disposition, lwbsExitTTL)
			}
		}
	}
	return census, toRemove, nil
}

// shouldLeaveWithoutBeingSeen applies §4.7's CTAS-keyed wait thresholds.
// CTAS 1 and 2 never LWBS.
func shouldLeaveWithoutBeingSeen(enc *encounter.Encounter) bool {
	waited := enc.WaitTimeRemaining
	switch enc.AssignedCTAS {
	case 5:
		return waited > lwbsCTAS5Threshold
	case 4:
		return waited > lwbsCTAS4Threshold
	case 3:
		return waited > lwbsCTAS3Threshold
	default:
		return false
	}
}

// advanceRoomedStage evaluates one ROOMED/ADMITTED_NO_BED encounter's
// clinical stage transition for this tick (§4.3).
func (e *Engine) advanceRoomedStage(enc *encounter.Encounter, dischargeBudget float64, toRemove *[]uuid.UUID) error {
	switch enc.Stage {
	case encounter.StageAssessing:
		if e.clock.Chance(assessingToTestingProbability) {
			if enc.AssignedCTAS <= 3 {
				enc.Stage = encounter.StageTesting
				enc.LabTimer = scaledTimer(baseLabTimer(e.simHour))
			} else {
				enc.Stage = encounter.StageTreating
			}
		}

	case encounter.StageTesting:
		if enc.AssignedCTAS > 1 && e.clock.Chance(resultsReleaseProbability) {
			return enc.SetFlow(encounter.StatusWaitingForResults, encounter.ResourceNone)
		}
		enc.LabTimer--
		if enc.LabTimer <= 0 {
			if enc.Disposition == encounter.DispositionAdmit {
				enc.Stage = encounter.StageBoarding
			} else {
				enc.Stage = encounter.StageTreating
			}
		}

	case encounter.StageBoarding:
		enc.TreatmentTimeRemaining--
		if enc.TreatmentTimeRemaining <= 0 && e.clock.Chance(dischargeBudget) {
			if err := enc.SetFlow(encounter.StatusDischarged, encounter.ResourceNone); err != nil {
				return err
			}
			*toRemove = append(*toRemove, enc.ID)
			e.logExit(enc, encounter.StatusDischarged, "WARD", encounter.DispositionAdmit, dischargeExitTTL)
		}

	case encounter.StageTreating:
		enc.TreatmentTimeRemaining--
		if enc.TreatmentTimeRemaining <= 0 && e.clock.Chance(dischargeBudget) {
			if err := enc.SetFlow(encounter.StatusDischarged, encounter.ResourceNone); err != nil {
				return err
			}
			*toRemove = append(*toRemove, enc.ID)
			e.logExit(enc, encounter.StatusDischarged, "HOME", encounter.DispositionDischarge, dischargeExitTTL)
		}

	default:
		enc.Stage = encounter.StageAssessing
	}
	return nil
}

// initRooming sets the first-rooming pipeline parameters §4.3 defines:
// stage, lab_timer, disposition and treatment_time_remaining.
func (e *Engine) initRooming(enc *encounter.Encounter) {
	enc.Stage = encounter.StageAssessing
	enc.LabTimer = scaledTimer(baseLabTimer(e.simHour))

	if e.clock.Chance(admitProbability) {
		enc.Disposition = encounter.DispositionAdmit
		enc.TreatmentTimeRemaining = scaledTimer(e.clock.IntRange(1440, 2880))
		return
	}

	enc.Disposition = encounter.DispositionDischarge
	switch {
	case enc.AssignedCTAS == 1 || enc.AssignedCTAS == 2:
		enc.TreatmentTimeRemaining = scaledTimer(e.clock.IntRange(240, 480))
	case enc.AssignedCTAS == 3:
		enc.TreatmentTimeRemaining = scaledTimer(e.clock.IntRange(180, 360))
	default:
		enc.TreatmentTimeRemaining = scaledTimer(e.clock.IntRange(60, 180))
	}
}
