package simclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_TickAdvance(t *testing.T) {
	t.Run("should start at tick zero and advance by one", func(t *testing.T) {
		s := New(1)
		assert.Equal(t, int64(0), s.Tick())
		s.Advance()
		assert.Equal(t, int64(1), s.Tick())
		s.Advance()
		assert.Equal(t, int64(2), s.Tick())
	})
}

func TestSource_Chance(t *testing.T) {
	t.Run("should always fail for p<=0", func(t *testing.T) {
		s := New(1)
		for i := 0; i < 100; i++ {
			assert.False(t, s.Chance(0))
			assert.False(t, s.Chance(-1))
		}
	})

	t.Run("should always succeed for p>=1", func(t *testing.T) {
		s := New(1)
		for i := 0; i < 100; i++ {
			assert.True(t, s.Chance(1))
			assert.True(t, s.Chance(2))
		}
	})

	t.Run("should be deterministic for a fixed seed", func(t *testing.T) {
		a := New(42)
		b := New(42)
		for i := 0; i < 50; i++ {
			assert.Equal(t, a.Chance(0.5), b.Chance(0.5))
		}
	})
}

func TestSource_IntRange(t *testing.T) {
	t.Run("should stay within bounds inclusive", func(t *testing.T) {
		s := New(7)
		for i := 0; i < 200; i++ {
			v := s.IntRange(18, 90)
			assert.GreaterOrEqual(t, v, 18)
			assert.LessOrEqual(t, v, 90)
		}
	})

	t.Run("should return lo when hi<=lo", func(t *testing.T) {
		s := New(7)
		assert.Equal(t, 5, s.IntRange(5, 5))
		assert.Equal(t, 5, s.IntRange(5, 3))
	})
}

func TestSource_Pick(t *testing.T) {
	t.Run("should return an index within range", func(t *testing.T) {
		s := New(3)
		for i := 0; i < 200; i++ {
			v := s.Pick(4)
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, 4)
		}
	})

	t.Run("should return zero for n<=0", func(t *testing.T) {
		s := New(3)
		assert.Equal(t, 0, s.Pick(0))
	})
}
