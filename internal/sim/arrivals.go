package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

const (
	baseArrivalProb     = 0.25
	nightArrivalFactor  = 0.20
	dayArrivalFactor    = 1.50
	eveningArrivalFactor = 1.00

	divertedQueueMultiplier = 3
	divertedArrivalFactor   = 0.10

	misTriageProbability = 0.2
)

// hourlyArrivalProbability is §4.2's diurnal base curve, before any
// per-facility diversion factor is applied.
func hourlyArrivalProbability(hour int) float64 {
	switch {
	case hour >= 0 && hour < 8:
		return baseArrivalProb * nightArrivalFactor
	case hour >= 8 && hour < 20:
		return baseArrivalProb * dayArrivalFactor
	case hour >= 20 && hour < 24:
		return baseArrivalProb * eveningArrivalFactor
	default:
		return baseArrivalProb
	}
}

// generateArrivals draws one Bernoulli arrival per facility per tick, subject
// to ambulance diversion under queue pressure (§4.2, §8's diversion
// property).
func (e *Engine) generateArrivals() error {
	base := hourlyArrivalProbability(e.simHour)
	for _, f := range seeds.Facilities {
		prob := base
		if e.waitingQueueLen(f.ID) > f.Resources.PhysicalBeds*divertedQueueMultiplier {
			prob *= divertedArrivalFactor
		}
		if !e.clock.Chance(prob) {
			continue
		}
		if err := e.spawnEncounter(f.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) waitingQueueLen(facilityID string) int {
	n := 0
	for _, enc := range e.active {
		if enc.FacilityID == facilityID && enc.Status() == encounter.StatusWaiting {
			n++
		}
	}
	return n
}

func (e *Engine) spawnEncounter(facilityID string) error {
	rule := seeds.ClinicalRules[e.clock.Pick(len(seeds.ClinicalRules))]

	ctas := rule.RequiredCTAS
	serious := rule.Risk == seeds.RiskHigh || rule.Risk == seeds.RiskCritical
	notes := fmt.Sprintf("Patient presents with %s.", rule.Symptom)

	if e.clock.Chance(misTriageProbability) {
		if e.clock.Chance(0.5) {
			ctas = randomWrongCTAS(e, rule.RequiredCTAS)
		} else {
			serious = false
			notes += " slightly concerned about hospitalization."
		}
	}

	age := e.clock.IntRange(18, 90)
	enc := encounter.New(uuid.New(), facilityID, age, rule.Symptom, notes, ctas, serious, e.clock.Tick(), time.Now())
	e.active[enc.ID] = enc
	e.totalProcessed++

	e.log.WithFields(logrus.Fields{
		"patient":  fmt.Sprintf("P-%s", enc.ShortID()),
		"facility": facilityID,
		"symptom":  enc.Symptom,
		"ctas":     enc.AssignedCTAS,
	}).Debug("patient arrived")

	if alert := e.auditor.Audit(enc); alert != nil {
		e.alerts = append(e.alerts, *alert)
		e.log.WithFields(logrus.Fields{
			"rule":     alert.RuleViolated,
			"severity": alert.Severity,
			"patient":  fmt.Sprintf("P-%s", enc.ShortID()),
		}).Warn(alert.Explanation)
	}
	return nil
}

// randomWrongCTAS draws a uniformly random CTAS level other than required.
func randomWrongCTAS(e *Engine, required int) int {
	candidates := make([]int, 0, 4)
	for c := 1; c <= 5; c++ {
		if c != required {
			candidates = append(candidates, c)
		}
	}
	return candidates[e.clock.Pick(len(candidates))]
}
