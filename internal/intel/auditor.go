// Package intel is the clinical intelligence auditor that runs alongside the
// flow simulator: every new arrival is checked against the static rule base
// and a tick-keyed respiratory outbreak window, and at most one alert is
// appended to the session's alert log. It is the generalization of the
// teacher's price-alert engine — a rule set evaluated against a stream of
// events, first match wins — retargeted from price thresholds to clinical
// protocol violations.
package intel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

// RespiratoryOutbreakWindowTicks is the 60-simulated-minute window the
// outbreak detector prunes against, expressed in ticks rather than wallclock
// so the window survives a paused or fast-forwarded session (§9 "Respiratory
// window").
const RespiratoryOutbreakWindowTicks = 60

// RespiratoryOutbreakThreshold is the count that must be exceeded, not met,
// within the window before an R-BIO-01 alert fires.
const RespiratoryOutbreakThreshold = 3

const respiratorySymptom = "Difficulty Breathing"

// Alert is one clinical protocol violation surfaced by the auditor. Alerts
// are append-only once written to a session's log; the auditor never mutates
// one after returning it.
type Alert struct {
	ID            uuid.UUID
	EncounterID   uuid.UUID
	RuleViolated  string
	Severity      seeds.RiskLevel
	ArrivalTick   int64
	Explanation   string
}

// Auditor evaluates arrivals against the static clinical rule base and its
// own sliding window of respiratory-distress arrivals. Each session owns one
// Auditor; it is not safe for concurrent use, matching the single-driver-
// goroutine contract the rest of the engine follows.
type Auditor struct {
	respiratoryWindow []int64 // arrival ticks of "Difficulty Breathing" encounters
}

// NewAuditor returns an Auditor with an empty respiratory window.
func NewAuditor() *Auditor {
	return &Auditor{}
}

// Audit evaluates one arrival and returns the single highest-priority alert,
// or nil if the encounter violates nothing. Rule priority is fixed:
// CTAS-mismatch, then safety-keyword contradiction, then respiratory
// outbreak (§4.6, §8).
func (a *Auditor) Audit(e *encounter.Encounter) *Alert {
	if alert := a.checkCTASMismatch(e); alert != nil {
		return alert
	}
	if alert := a.checkSafetyKeyword(e); alert != nil {
		return alert
	}
	return a.checkRespiratoryOutbreak(e)
}

func (a *Auditor) checkCTASMismatch(e *encounter.Encounter) *Alert {
	for _, rule := range seeds.ClinicalRules {
		if rule.Symptom != e.Symptom {
			continue
		}
		if e.AssignedCTAS == rule.RequiredCTAS {
			return nil
		}
		return &Alert{
			ID:           uuid.New(),
			EncounterID:  e.ID,
			RuleViolated: rule.RuleID,
			Severity:     rule.Risk,
			ArrivalTick:  e.ArrivalTick,
			Explanation: fmt.Sprintf(
				"Patient P-%s (%s) assigned CTAS %d. Protocol requires CTAS %d.",
				e.ShortID(), e.Symptom, e.AssignedCTAS, rule.RequiredCTAS,
			),
		}
	}
	return nil
}

func (a *Auditor) checkSafetyKeyword(e *encounter.Encounter) *Alert {
	if e.IsSerious {
		return nil
	}
	notes := strings.ToLower(e.ClinicalNotes)
	for _, kw := range seeds.SafetyKeywords {
		if strings.Contains(notes, strings.ToLower(kw)) {
			return &Alert{
				ID:           uuid.New(),
				EncounterID:  e.ID,
				RuleViolated: "R-SAFETY-01",
				Severity:     seeds.RiskCritical,
				ArrivalTick:  e.ArrivalTick,
				Explanation:  fmt.Sprintf("Safety keyword detected in notes for P-%s but is_serious is false.", e.ShortID()),
			}
		}
	}
	return nil
}

func (a *Auditor) checkRespiratoryOutbreak(e *encounter.Encounter) *Alert {
	if e.Symptom == respiratorySymptom {
		a.respiratoryWindow = append(a.respiratoryWindow, e.ArrivalTick)
	}

	cutoff := e.ArrivalTick - RespiratoryOutbreakWindowTicks
	pruned := a.respiratoryWindow[:0]
	for _, t := range a.respiratoryWindow {
		if t > cutoff {
			pruned = append(pruned, t)
		}
	}
	a.respiratoryWindow = pruned

	if len(a.respiratoryWindow) > RespiratoryOutbreakThreshold {
		return &Alert{
			ID:           uuid.New(),
			EncounterID:  e.ID,
			RuleViolated: "R-BIO-01",
			Severity:     seeds.RiskCritical,
			ArrivalTick:  e.ArrivalTick,
			Explanation:  "BIO_SIGNAL_DETECTED: >3 Respiratory Distress cases in <60 simulated minutes.",
		}
	}
	return nil
}
