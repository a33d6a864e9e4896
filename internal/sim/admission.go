package sim

import (
	"sort"

	"github.com/solaris-clearae/edflow/internal/capacity"
	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
	"github.com/solaris-clearae/edflow/internal/triage"
)

// runAdmissionPlanner executes §4.5 once per facility: Pass A re-rooms
// results-ready WAITING_FOR_RESULTS encounters, then Pass B admits from the
// WAITING queue in (CTAS, arrival_tick) priority order, both passes sharing
// one per-facility admit_quota (§4.4).
func (e *Engine) runAdmissionPlanner(census map[string]*capacity.Census) error {
	for _, f := range seeds.Facilities {
		staffing := capacity.StaffingFor(f.Resources, e.simHour)
		quota := capacity.AdmitQuota(staffing.MDCount, e.clock.Chance)
		admitted := 0

		c := census[f.ID]
		if c == nil {
			c = &capacity.Census{}
			census[f.ID] = c
		}

		if err := e.admitResultsReady(f, c, quota, &admitted); err != nil {
			return err
		}
		if err := e.admitWaitingQueue(f, c, quota, &admitted); err != nil {
			return err
		}
	}
	return nil
}

// admitResultsReady is Pass A: results-ready re-entry, iteration order fixed
// to ascending arrival_tick for determinism (§13 decision).
func (e *Engine) admitResultsReady(f seeds.Facility, c *capacity.Census, quota int, admitted *int) error {
	var ready []*encounter.Encounter
	for _, enc := range e.active {
		if enc.FacilityID == f.ID && enc.Status() == encounter.StatusWaitingForResults && enc.LabTimer <= 0 {
			ready = append(ready, enc)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ArrivalTick < ready[j].ArrivalTick })

	for _, enc := range ready {
		if *admitted >= quota {
			return nil
		}

		var assigned bool
		switch {
		case isChairEligible(enc.AssignedCTAS) && c.Chair < f.Resources.ChairCapacity && c.Total() < f.Resources.SurgeCapacity:
			if err := enc.SetFlow(encounter.StatusRoomed, encounter.ResourceChair); err != nil {
				return err
			}
			c.Chair++
			assigned = true
		case c.Bed < f.Resources.PhysicalBeds && c.Total() < f.Resources.SurgeCapacity:
			if err := enc.SetFlow(encounter.StatusRoomed, encounter.ResourceBed); err != nil {
				return err
			}
			c.Bed++
			assigned = true
		case c.Total() < f.Resources.SurgeCapacity:
			if err := enc.SetFlow(encounter.StatusAdmittedNoBed, encounter.ResourceHallway); err != nil {
				return err
			}
			c.Hallway++
			assigned = true
		}

		if !assigned {
			continue
		}
		if enc.Disposition == encounter.DispositionAdmit {
			enc.Stage = encounter.StageBoarding
		} else {
			enc.Stage = encounter.StageTreating
		}
		*admitted++
	}
	return nil
}

func isChairEligible(ctas int) bool {
	return ctas == 2 || ctas == 3 || ctas == 4 || ctas == 5
}

// admitWaitingQueue is Pass B: the triage-priority waiting queue, draining
// in (assigned_ctas, arrival_tick) order until the shared quota is spent.
func (e *Engine) admitWaitingQueue(f seeds.Facility, c *capacity.Census, quota int, admitted *int) error {
	q := triage.NewQueue()
	for _, enc := range e.active {
		if enc.FacilityID == f.ID && enc.Status() == encounter.StatusWaiting {
			q.Push(enc)
		}
	}

	for _, enc := range q.Drain() {
		if *admitted >= quota {
			return nil
		}

		active, err := e.roomFromWaiting(enc, f, c)
		if err != nil {
			return err
		}
		if active {
			e.initRooming(enc)
			*admitted++
		}
	}
	return nil
}

// roomFromWaiting applies §4.5's Pass B preference table for one CTAS level.
func (e *Engine) roomFromWaiting(enc *encounter.Encounter, f seeds.Facility, c *capacity.Census) (bool, error) {
	switch enc.AssignedCTAS {
	case 1:
		if c.Bed < f.Resources.PhysicalBeds && c.Total() < f.Resources.SurgeCapacity {
			c.Bed++
			return true, enc.SetFlow(encounter.StatusRoomed, encounter.ResourceBed)
		}
		if c.Total() < f.Resources.SurgeCapacity {
			c.Hallway++
			return true, enc.SetFlow(encounter.StatusAdmittedNoBed, encounter.ResourceHallway)
		}
		return false, nil

	case 2:
		if c.Chair < f.Resources.ChairCapacity && c.Total() < f.Resources.SurgeCapacity {
			c.Chair++
			return true, enc.SetFlow(encounter.StatusRoomed, encounter.ResourceChair)
		}
		if c.Bed < f.Resources.PhysicalBeds && c.Total() < f.Resources.SurgeCapacity {
			c.Bed++
			return true, enc.SetFlow(encounter.StatusRoomed, encounter.ResourceBed)
		}
		if c.Total() < f.Resources.SurgeCapacity {
			c.Hallway++
			return true, enc.SetFlow(encounter.StatusAdmittedNoBed, encounter.ResourceHallway)
		}
		return false, nil

	default: // 3,4,5
		if c.Chair < f.Resources.ChairCapacity && c.Total() < f.Resources.SurgeCapacity {
			c.Chair++
			return true, enc.SetFlow(encounter.StatusRoomed, encounter.ResourceChair)
		}
		if c.Bed < f.Resources.PhysicalBeds && c.Total() < f.Resources.SurgeCapacity {
			c.Bed++
			return true, enc.SetFlow(encounter.StatusRoomed, encounter.ResourceBed)
		}
		if c.Total() < f.Resources.SurgeCapacity {
			c.Hallway++
			return true, enc.SetFlow(encounter.StatusAdmittedNoBed, encounter.ResourceHallway)
		}
		return false, nil
	}
}
