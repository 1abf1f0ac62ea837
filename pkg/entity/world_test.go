// pkg/entity/world_test.go
package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-asteroids/pkg/physics"
)

func TestNewWorld(t *testing.T) {
	tests := []struct {
		name           string
		width, height  float64
		expectedWidth  float64
		expectedHeight float64
	}{
		{"regular", 1000, 500, 1000, 500},
		{"zero_width", 0, 500, math.MaxFloat64, 500},
		{"negative_height", 1000, -1, 1000, math.MaxFloat64},
		{"nan", math.NaN(), math.Inf(1), math.MaxFloat64, math.MaxFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, tt.width, tt.height)
			assert.Equal(t, tt.expectedWidth, w.Width())
			assert.Equal(t, tt.expectedHeight, w.Height())
			assert.Equal(t, 0, w.NbEntities())
			assert.Equal(t, DefaultLimits(), w.Limits())
		})
	}

	limits := DefaultLimits()
	limits.MinShipRadius = 0
	_, err := NewWorld(100, 100, limits)
	assert.Error(t, err)
}

func TestWorld_AddEntity(t *testing.T) {
	w := newTestWorld(t, 1000, 1000)
	s := newTestShip(t, 100, 100, 0, 0, 10)
	require.NoError(t, w.AddEntity(s))
	assert.Same(t, w, s.World())
	assert.True(t, w.HasAsEntity(s))

	got, ok := w.EntityAt(physics.MustPosition(100, 100))
	require.True(t, ok)
	assert.Same(t, s, got)

	t.Run("already_in_world", func(t *testing.T) {
		assert.ErrorIs(t, w.AddEntity(s), ErrPrecondition)
		other := newTestWorld(t, 1000, 1000)
		assert.ErrorIs(t, other.AddEntity(s), ErrPrecondition)
	})

	t.Run("overlapping", func(t *testing.T) {
		intruder := newTestShip(t, 110, 100, 0, 0, 10)
		err := w.AddEntity(intruder)
		assert.ErrorIs(t, err, ErrOverlap)

		var overlapErr *OverlapError
		require.True(t, errors.As(err, &overlapErr))
		assert.Same(t, intruder, overlapErr.First)
		assert.Same(t, s, overlapErr.Second)
		assert.Nil(t, intruder.World())
	})

	t.Run("out_of_bounds", func(t *testing.T) {
		outside := newTestShip(t, 995, 500, 0, 0, 10)
		assert.ErrorIs(t, w.AddEntity(outside), ErrOutOfBounds)
		negative := newTestShip(t, -50, 500, 0, 0, 10)
		assert.ErrorIs(t, w.AddEntity(negative), ErrOutOfBounds)
	})

	t.Run("touching_wall_within_tolerance", func(t *testing.T) {
		edge := newTestShip(t, 9.95, 500, 0, 0, 10)
		assert.NoError(t, w.AddEntity(edge))
	})

	t.Run("loaded_bullet", func(t *testing.T) {
		owner := newTestShip(t, 500, 500, 0, 0, 10)
		b := newTestBullet(t, 500, 500, 0, 0, 2)
		require.NoError(t, owner.LoadBullet(b))
		assert.ErrorIs(t, w.AddEntity(b), ErrPrecondition)
	})

	t.Run("terminated", func(t *testing.T) {
		dead := newTestShip(t, 700, 700, 0, 0, 10)
		dead.Terminate()
		assert.ErrorIs(t, w.AddEntity(dead), ErrTerminated)
	})
}

func TestWorld_RemoveEntity(t *testing.T) {
	t.Run("plain_body", func(t *testing.T) {
		w := newTestWorld(t, 1000, 1000)
		s := newTestShip(t, 100, 100, 0, 0, 10)
		require.NoError(t, w.AddEntity(s))
		require.NoError(t, w.RemoveEntity(s))
		assert.Nil(t, s.World())
		_, ok := w.EntityAt(physics.MustPosition(100, 100))
		assert.False(t, ok)
		assert.ErrorIs(t, w.RemoveEntity(s), ErrPrecondition)
	})

	t.Run("ship_with_bullets_in_flight", func(t *testing.T) {
		w := newTestWorld(t, 1000, 1000)
		s := newTestShip(t, 500, 500, 0, 0, 10)
		b := newTestBullet(t, 500, 500, 0, 0, 2)
		require.NoError(t, s.LoadBullet(b))
		require.NoError(t, w.AddEntity(s))
		_, err := s.FireBullet()
		require.NoError(t, err)

		assert.ErrorIs(t, w.RemoveEntity(s), ErrPrecondition)
		assert.ErrorIs(t, w.RemoveEntity(b), ErrPrecondition, "bullet is away from its ship")

		require.NoError(t, b.SetPosition(physics.MustPosition(512, 500)))
		require.NoError(t, w.RemoveEntity(b))
		assert.Nil(t, b.World())
		assert.Nil(t, b.Ship(), "the ship lets go of a removed bullet")
		require.NoError(t, w.RemoveEntity(s))
	})

	t.Run("free_bullet", func(t *testing.T) {
		w := newTestWorld(t, 1000, 1000)
		b := newTestBullet(t, 300, 300, 0, 0, 2)
		require.NoError(t, w.AddEntity(b))
		require.NoError(t, w.RemoveEntity(b))
		assert.Equal(t, 0, w.NbEntities())
	})
}

func TestWorld_Queries(t *testing.T) {
	w := newTestWorld(t, 1000, 1000)
	s1 := newTestShip(t, 100, 100, 0, 0, 10)
	b1 := newTestBullet(t, 300, 300, 0, 0, 2)
	s2 := newTestShip(t, 500, 500, 0, 0, 10)
	for _, b := range []Body{s2, b1, s1} {
		require.NoError(t, w.AddEntity(b))
	}

	assert.Equal(t, []Body{s1, b1, s2}, w.Entities())
	assert.Equal(t, []*Ship{s1, s2}, w.Ships())
	assert.Equal(t, []*Bullet{b1}, w.Bullets())
	assert.Equal(t, []physics.Position{
		physics.MustPosition(100, 100),
		physics.MustPosition(300, 300),
		physics.MustPosition(500, 500),
	}, w.OccupiedPositions())
	assert.Equal(t, 3, w.NbEntities())
	assert.False(t, w.HasAsEntity(newTestShip(t, 0, 0, 0, 0, 10)))
}

func TestWorld_TimeToFirstCollision(t *testing.T) {
	w := newTestWorld(t, 1000, 1000)
	tc, err := w.TimeToFirstCollision()
	require.NoError(t, err)
	assert.True(t, math.IsInf(tc, 1), "an empty world has no collision")
	_, ok, err := w.PositionOfFirstCollision()
	require.NoError(t, err)
	assert.False(t, ok)

	a := newTestShip(t, 400, 500, 10, 0, 10)
	b := newTestShip(t, 600, 500, -10, 0, 10)
	require.NoError(t, w.AddEntity(a))
	require.NoError(t, w.AddEntity(b))

	tc, err = w.TimeToFirstCollision()
	require.NoError(t, err)
	assert.InDelta(t, 9, tc, 1e-12)

	pos, ok, err := w.PositionOfFirstCollision()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 500, pos.X(), 1e-9)
	assert.InDelta(t, 500, pos.Y(), 1e-9)

	c := newTestShip(t, 500, 985, 0, 50, 10)
	require.NoError(t, w.AddEntity(c))
	tc, err = w.TimeToFirstCollision()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, tc, 1e-12)

	pos, ok, err = w.PositionOfFirstCollision()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 990, pos.Y(), 1e-9)
}

func TestWorld_Terminate(t *testing.T) {
	w := newTestWorld(t, 1000, 1000)
	s := newTestShip(t, 500, 500, 0, 0, 10)
	flying := newTestBullet(t, 500, 500, 0, 0, 2)
	loaded := newTestBullet(t, 500, 500, 0, 0, 2)
	require.NoError(t, s.LoadBullets(flying, loaded))
	require.NoError(t, w.AddEntity(s))
	_, err := s.FireBullet()
	require.NoError(t, err)

	w.Terminate()
	assert.True(t, w.IsTerminated())
	assert.Equal(t, 0, w.NbEntities())
	assert.Nil(t, s.World())
	assert.Nil(t, flying.World())
	assert.Nil(t, flying.Ship())
	assert.False(t, flying.IsTerminated())
	assert.True(t, s.HasLoaded(loaded))

	w.Terminate()
	assert.True(t, w.IsTerminated())

	_, err = w.TimeToFirstCollision()
	assert.ErrorIs(t, err, ErrTerminated)
	assert.ErrorIs(t, w.AddEntity(newTestShip(t, 100, 100, 0, 0, 10)), ErrTerminated)
	assert.ErrorIs(t, w.Evolve(1, nil), ErrTerminated)
}
