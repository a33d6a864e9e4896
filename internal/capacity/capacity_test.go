package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCensus_Tally(t *testing.T) {
	t.Run("should increment the matching resource counter only", func(t *testing.T) {
		var c Census
		c.Tally(ResourceBed)
		c.Tally(ResourceChair)
		c.Tally(ResourceHallway)
		c.Tally(ResourceBed)

		assert.Equal(t, 2, c.Bed)
		assert.Equal(t, 1, c.Chair)
		assert.Equal(t, 1, c.Hallway)
		assert.Equal(t, 4, c.Total())
	})

	t.Run("should ignore an unrecognized resource", func(t *testing.T) {
		var c Census
		c.Tally(ResourceType("UNKNOWN"))
		assert.Equal(t, 0, c.Total())
	})
}

func TestAdmitQuota(t *testing.T) {
	t.Run("should take the floor plus a Bernoulli draw on the remainder", func(t *testing.T) {
		// rate = (12*1.0*5.0)/60 = 1.0 exactly -> always 1, chance never consulted meaningfully
		quota := AdmitQuota(12, func(p float64) bool { return false })
		assert.Equal(t, 1, quota)

		// rate = (6*1.0*5.0)/60 = 0.5 -> floor 0, +1 if chance succeeds
		quotaNoRound := AdmitQuota(6, func(p float64) bool { return false })
		quotaRound := AdmitQuota(6, func(p float64) bool { return true })
		assert.Equal(t, 0, quotaNoRound)
		assert.Equal(t, 1, quotaRound)
	})
}

func TestNEDOCS(t *testing.T) {
	t.Run("should bucket occupancy ratio at the defined thresholds", func(t *testing.T) {
		assert.Equal(t, 1, NEDOCS(10, 100))  // 0.10 < 0.2
		assert.Equal(t, 2, NEDOCS(30, 100))  // 0.30 < 0.4
		assert.Equal(t, 3, NEDOCS(50, 100))  // 0.50 < 0.6
		assert.Equal(t, 4, NEDOCS(70, 100))  // 0.70 < 0.8
		assert.Equal(t, 5, NEDOCS(90, 100))  // 0.90 < 1.0
		assert.Equal(t, 6, NEDOCS(100, 100)) // >= 1.0
		assert.Equal(t, 6, NEDOCS(150, 100))
	})

	t.Run("should return the lowest score for a non-positive capacity", func(t *testing.T) {
		assert.Equal(t, 1, NEDOCS(0, 0))
	})
}

func TestAverageLOSHours(t *testing.T) {
	t.Run("should round the mean to one decimal", func(t *testing.T) {
		assert.InDelta(t, 2.3, AverageLOSHours([]float64{2.0, 2.5, 2.4}), 0.01)
	})

	t.Run("should return zero for an empty history", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageLOSHours(nil))
	})
}

func TestShiftForHour(t *testing.T) {
	t.Run("should select night/day/evening per the §4.1 boundaries", func(t *testing.T) {
		assert.Equal(t, ShiftNight, ShiftForHour(0))
		assert.Equal(t, ShiftNight, ShiftForHour(7))
		assert.Equal(t, ShiftDay, ShiftForHour(8))
		assert.Equal(t, ShiftDay, ShiftForHour(15))
		assert.Equal(t, ShiftEvening, ShiftForHour(16))
		assert.Equal(t, ShiftEvening, ShiftForHour(23))
	})
}
