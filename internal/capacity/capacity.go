// Package capacity computes the per-facility occupancy counters, the
// per-tick throughput cap, and the NEDOCS-like network stress score. It is
// the ED-flow generalization of the teacher's risk calculator: instead of a
// per-user exposure/margin snapshot derived from a position map, it derives
// a per-facility bed/chair/hallway census from the engine's live encounter
// set, every tick.
package capacity

import (
	"github.com/shopspring/decimal"

	"github.com/solaris-clearae/edflow/internal/seeds"
)

// ProductivityFactor scales baseline clinical timers to model accelerated
// clinical work. Fixed per §4.3/§4.4/GLOSSARY; never derived, never tuned at
// runtime.
const ProductivityFactor = 5.0

// Census is the live occupancy of one facility at the point it was taken.
type Census struct {
	Bed     int
	Chair   int
	Hallway int
}

// Total returns the facility's combined occupied census (bed+chair+hallway).
func (c Census) Total() int { return c.Bed + c.Chair + c.Hallway }

// Tally increments the census for one occupied resource assignment. Callers
// scan their own active-encounter set and tally one resource at a time,
// since that scan is fused with other per-encounter work (stage transitions)
// rather than run as a separate pass.
func (c *Census) Tally(resource ResourceType) {
	switch resource {
	case ResourceBed:
		c.Bed++
	case ResourceChair:
		c.Chair++
	case ResourceHallway:
		c.Hallway++
	}
}

// ResourceType mirrors internal/encounter's resource enum so this package
// does not need to import internal/encounter — capacity depends only on
// internal/seeds and stays independent of the mutable encounter model it
// measures.
type ResourceType string

const (
	ResourceBed     ResourceType = "BED"
	ResourceChair   ResourceType = "CHAIR"
	ResourceHallway ResourceType = "HALLWAY"
)

// AdmitQuota computes the per-tick admission/discharge budget for a
// facility's current shift staffing: floor(rate) plus a Bernoulli draw on
// the fractional remainder, where rate = (mdCount * 1.0 * ProductivityFactor)
// / 60 (§4.4). chance is the caller's Bernoulli source (normally
// simclock.Source.Chance) so the draw stays seeded and testable.
func AdmitQuota(mdCount int, chance func(p float64) bool) int {
	rate := (float64(mdCount) * 1.0 * ProductivityFactor) / 60.0
	whole := int(rate)
	frac := rate - float64(whole)
	if chance(frac) {
		whole++
	}
	return whole
}

// DischargeProbability is the same per-tick rate used as the discharge gate
// in TREATING/BOARDING (§4.4 — "the same quota serves as the per-tick
// probability").
func DischargeProbability(mdCount int) float64 {
	return (float64(mdCount) * 1.0 * ProductivityFactor) / 60.0
}

// NEDOCS buckets a network-wide occupancy ratio into the 1-6 score §4.9
// defines, computed with exact decimal comparisons so threshold boundaries
// never drift from float rounding.
func NEDOCS(activeTotal int, totalCapacity int) int {
	if totalCapacity <= 0 {
		return 1
	}
	ratio := decimal.NewFromInt(int64(activeTotal)).Div(decimal.NewFromInt(int64(totalCapacity)))

	thresholds := []string{"0.2", "0.4", "0.6", "0.8", "1.0"}
	for i, t := range thresholds {
		if ratio.LessThan(decimal.RequireFromString(t)) {
			return i + 1
		}
	}
	return 6
}

// OccupancyRatio returns the network-wide active/capacity ratio as a float64
// for callers that only need it for display, not bucketing.
func OccupancyRatio(activeTotal int) float64 {
	total := seeds.TotalCapacity()
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(activeTotal)).
		DivRound(decimal.NewFromInt(int64(total)), 4).
		InexactFloat64()
}

// AverageLOSHours rounds the mean of a set of simulated length-of-stay
// samples (already expressed in hours) to one decimal place, using decimal
// arithmetic so the rounding matches exactly regardless of how many samples
// are averaged.
func AverageLOSHours(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, s := range samples {
		sum = sum.Add(decimal.NewFromFloat(s))
	}
	avg := sum.DivRound(decimal.NewFromInt(int64(len(samples))), 4)
	return avg.Round(1).InexactFloat64()
}

// Shift identifies which staffing shift is active for a simulated hour.
type Shift string

const (
	ShiftDay     Shift = "day_shift"
	ShiftEvening Shift = "evening_shift"
	ShiftNight   Shift = "night_shift"
)

// ShiftForHour returns the staffing shift active at the given simulated hour
// (§4.1).
func ShiftForHour(hour int) Shift {
	switch {
	case hour >= 0 && hour < 8:
		return ShiftNight
	case hour >= 8 && hour < 16:
		return ShiftDay
	default:
		return ShiftEvening
	}
}

// StaffingFor returns the MD/RN headcount active at the given simulated hour
// for a facility.
func StaffingFor(res seeds.Resources, hour int) seeds.ShiftStaffing {
	switch ShiftForHour(hour) {
	case ShiftNight:
		return res.NightShift
	case ShiftEvening:
		return res.EveningShift
	default:
		return res.DayShift
	}
}
