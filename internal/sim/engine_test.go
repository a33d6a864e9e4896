package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaris-clearae/edflow/internal/encounter"
	"github.com/solaris-clearae/edflow/internal/seeds"
)

func TestNew(t *testing.T) {
	t.Run("should start at 08:00 with an empty active set", func(t *testing.T) {
		e := New(1, nil)
		v := e.Vitals()
		assert.Equal(t, StartingSimHour, v.SimHour)
		assert.Equal(t, 0, v.Processed)
		assert.Equal(t, 0, v.LWBSCount)
		assert.Empty(t, v.Patients)
	})
}

func TestEngine_Tick(t *testing.T) {
	t.Run("should never error across a long deterministic run", func(t *testing.T) {
		e := New(42, nil)
		for i := 0; i < 2000; i++ {
			require.NoError(t, e.Tick())
		}
		assert.Greater(t, e.totalProcessed, 0)
	})

	t.Run("should never let a facility's roomed census exceed its surge capacity", func(t *testing.T) {
		for _, seed := range []int64{7, 11, 23, 31, 47} {
			e := New(seed, nil)
			for i := 0; i < 3000; i++ {
				require.NoError(t, e.Tick())

				byFacility := map[string]int{}
				for _, enc := range e.active {
					switch enc.Status() {
					case encounter.StatusRoomed, encounter.StatusAdmittedNoBed:
						byFacility[enc.FacilityID]++
					}
				}
				for _, f := range seeds.Facilities {
					require.LessOrEqualf(t, byFacility[f.ID], f.Resources.SurgeCapacity,
						"seed %d tick %d: facility %s over surge capacity (bed+chair+hallway must never exceed it)", seed, i, f.ID)
				}
			}
		}
	})

	t.Run("should never produce an encounter with a resource assignment illegal for its status", func(t *testing.T) {
		e := New(99, nil)
		for i := 0; i < 1500; i++ {
			require.NoError(t, e.Tick())
		}
		for _, enc := range e.active {
			err := enc.SetFlow(enc.Status(), enc.Resource())
			assert.NoError(t, err, "encounter %s has an illegal (status, resource) pairing", enc.ID)
		}
	})

	t.Run("should never LWBS a CTAS 1 or CTAS 2 encounter", func(t *testing.T) {
		e := New(13, nil)
		for i := 0; i < 2000; i++ {
			require.NoError(t, e.Tick())
		}
		for _, rec := range e.recentExits {
			if rec.Status == encounter.StatusLWBS {
				assert.NotEqual(t, 1, rec.AssignedCTAS)
				assert.NotEqual(t, 2, rec.AssignedCTAS)
			}
		}
	})

	t.Run("should keep monotonic counters non-decreasing", func(t *testing.T) {
		e := New(5, nil)
		prevProcessed, prevLWBS := 0, 0
		for i := 0; i < 1000; i++ {
			require.NoError(t, e.Tick())
			assert.GreaterOrEqual(t, e.totalProcessed, prevProcessed)
			assert.GreaterOrEqual(t, e.lwbsCount, prevLWBS)
			prevProcessed, prevLWBS = e.totalProcessed, e.lwbsCount
		}
	})

	t.Run("should cap hourly history and LOS history rings", func(t *testing.T) {
		e := New(21, nil)
		for i := 0; i < 6000; i++ {
			require.NoError(t, e.Tick())
		}
		assert.LessOrEqual(t, len(e.history), historyCap)
		assert.LessOrEqual(t, len(e.losHistory), losHistoryCap)
	})
}

func TestScaledTimer(t *testing.T) {
	t.Run("should floor-divide by the productivity factor", func(t *testing.T) {
		assert.Equal(t, 9, scaledTimer(45))
		assert.Equal(t, 18, scaledTimer(90))
		assert.Equal(t, 0, scaledTimer(2))
	})
}

func TestBaseLabTimer(t *testing.T) {
	t.Run("should use the longer night-shift baseline", func(t *testing.T) {
		assert.Equal(t, 90, baseLabTimer(2))
		assert.Equal(t, 45, baseLabTimer(10))
		assert.Equal(t, 45, baseLabTimer(18))
	})
}
