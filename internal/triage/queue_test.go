package triage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaris-clearae/edflow/internal/encounter"
)

func enc(ctas int, arrivalTick int64) *encounter.Encounter {
	return encounter.New(uuid.New(), "SBK", 40, "Chest Pain", "", ctas, true, arrivalTick, time.Now())
}

func TestQueue_DrainOrder(t *testing.T) {
	t.Run("should drain in ascending (CTAS, arrival_tick) order", func(t *testing.T) {
		q := NewQueue()
		q.Push(enc(3, 5))
		q.Push(enc(1, 10))
		q.Push(enc(1, 2))
		q.Push(enc(2, 1))

		drained := q.Drain()
		require.Len(t, drained, 4)

		assert.Equal(t, 1, drained[0].AssignedCTAS)
		assert.Equal(t, int64(2), drained[0].ArrivalTick)

		assert.Equal(t, 1, drained[1].AssignedCTAS)
		assert.Equal(t, int64(10), drained[1].ArrivalTick)

		assert.Equal(t, 2, drained[2].AssignedCTAS)
		assert.Equal(t, 3, drained[3].AssignedCTAS)
	})

	t.Run("should be empty after Drain", func(t *testing.T) {
		q := NewQueue()
		q.Push(enc(4, 1))
		q.Drain()
		assert.Equal(t, 0, q.Len())
	})
}

func TestQueue_Len(t *testing.T) {
	t.Run("should track the number of pushed entries", func(t *testing.T) {
		q := NewQueue()
		assert.Equal(t, 0, q.Len())
		q.Push(enc(5, 1))
		q.Push(enc(5, 2))
		assert.Equal(t, 2, q.Len())
		q.Pop()
		assert.Equal(t, 1, q.Len())
	})
}
