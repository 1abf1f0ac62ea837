// pkg/entity/world.go
package entity

import (
	"fmt"
	"math"
	"sort"

	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// quadTreeCapacity is the number of bodies a broad-phase node holds before
// it subdivides
const quadTreeCapacity = 8

// World is a width x height box holding bodies. Bodies are owned by the
// entity table; the occupancy table maps each occupied centre to its body.
type World struct {
	width      float64
	height     float64
	limits     Limits
	entities   map[ID]Body
	occupied   map[physics.Position]ID
	terminated bool
	broad      *physics.QuadTree[Body]
}

// NewWorld creates an empty world. A dimension outside (0, MaxFloat64] is
// replaced by MaxFloat64.
func NewWorld(width, height float64, limits Limits) (*World, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	if validation.ValidateDimension(width) != nil {
		width = math.MaxFloat64
	}
	if validation.ValidateDimension(height) != nil {
		height = math.MaxFloat64
	}
	return &World{
		width:    width,
		height:   height,
		limits:   limits,
		entities: make(map[ID]Body),
		occupied: make(map[physics.Position]ID),
		broad:    physics.NewQuadTree[Body](physics.NewRect(0, 0, width, height), quadTreeCapacity),
	}, nil
}

// Width returns the extent of the world along x
func (w *World) Width() float64 { return w.width }

// Height returns the extent of the world along y
func (w *World) Height() float64 { return w.height }

// Limits returns the physical parameters bodies of this world are built with
func (w *World) Limits() Limits { return w.limits }

// IsTerminated reports whether the world has been destroyed
func (w *World) IsTerminated() bool { return w.terminated }

// NbEntities returns the number of bodies in the world
func (w *World) NbEntities() int { return len(w.entities) }

// HasAsEntity reports whether b is in the world
func (w *World) HasAsEntity(b Body) bool {
	if b == nil {
		return false
	}
	held, ok := w.entities[b.ID()]
	return ok && held == b
}

// EntityAt returns the body centred at pos
func (w *World) EntityAt(pos physics.Position) (Body, bool) {
	id, ok := w.occupied[pos]
	if !ok {
		return nil, false
	}
	b, ok := w.entities[id]
	return b, ok
}

// Entities returns every body ordered by ID
func (w *World) Entities() []Body {
	result := make([]Body, 0, len(w.entities))
	for _, b := range w.entities {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Ships returns the ships ordered by ID
func (w *World) Ships() []*Ship {
	var ships []*Ship
	for _, b := range w.Entities() {
		if s, ok := b.(*Ship); ok {
			ships = append(ships, s)
		}
	}
	return ships
}

// Bullets returns the bullets ordered by ID
func (w *World) Bullets() []*Bullet {
	var bullets []*Bullet
	for _, b := range w.Entities() {
		if bullet, ok := b.(*Bullet); ok {
			bullets = append(bullets, bullet)
		}
	}
	return bullets
}

// OccupiedPositions returns the centres of all bodies ordered by body ID
func (w *World) OccupiedPositions() []physics.Position {
	bodies := w.Entities()
	positions := make([]physics.Position, len(bodies))
	for i, b := range bodies {
		positions[i] = b.Position()
	}
	return positions
}

// AddEntity puts b in the world. It fails when b is already in a world, is
// a loaded bullet, does not fit inside the boundary or overlaps another body.
func (w *World) AddEntity(b Body) error {
	if b == nil {
		return preconditionf("nil body")
	}
	if w.terminated {
		return fmt.Errorf("add entity: world: %w", ErrTerminated)
	}
	if b.IsTerminated() {
		return fmt.Errorf("add entity: %w", terminatedError(b))
	}
	if b.World() != nil {
		return fmt.Errorf("add entity: %w", preconditionf("%s %d is already in a world", b.Kind(), b.ID()))
	}
	if bullet, ok := b.(*Bullet); ok && bullet.ship != nil {
		return fmt.Errorf("add entity: %w", preconditionf("bullet %d is loaded on ship %d", bullet.ID(), bullet.ship.ID()))
	}
	if err := w.insert(b); err != nil {
		return fmt.Errorf("add entity: %w", err)
	}
	return nil
}

// insert adds b after checking bounds and overlap only
func (w *World) insert(b Body) error {
	if err := w.canPlace(b, b.Position()); err != nil {
		return err
	}
	w.entities[b.ID()] = b
	w.occupied[b.Position()] = b.ID()
	b.base().world = w
	return nil
}

// canPlace checks that b centred at pos would lie inside the boundary
// without overlapping any other body.
func (w *World) canPlace(b Body, pos physics.Position) error {
	if !w.inside(pos, b.Radius()) {
		return fmt.Errorf("%s %d at %v: %w", b.Kind(), b.ID(), pos, ErrOutOfBounds)
	}
	candidate := physics.Circle{Center: pos.Vec(), Radius: b.Radius()}
	for _, other := range w.Entities() {
		if other == b {
			continue
		}
		if candidate.Overlaps(circleOf(other)) {
			return &OverlapError{First: b, Second: other}
		}
	}
	return nil
}

func (w *World) inside(pos physics.Position, radius float64) bool {
	return physics.Inside(physics.Circle{Center: pos.Vec(), Radius: radius}, w.width, w.height)
}

// RemoveEntity takes b out of the world. A ship with bullets in flight
// cannot leave; a fired bullet can only leave while touching its ship, and
// is released by the ship when it does.
func (w *World) RemoveEntity(b Body) error {
	if w.terminated {
		return fmt.Errorf("remove entity: world: %w", ErrTerminated)
	}
	if !w.HasAsEntity(b) {
		return fmt.Errorf("remove entity: %w", preconditionf("body is not in this world"))
	}
	switch v := b.(type) {
	case *Ship:
		if n := v.NbBulletsFired(); n > 0 {
			return fmt.Errorf("remove entity: %w", preconditionf("ship %d has %d bullets in flight", v.ID(), n))
		}
	case *Bullet:
		if v.ship != nil {
			if !ApparentlyCollide(v, v.ship) {
				return fmt.Errorf("remove entity: %w", preconditionf("bullet %d is in flight from ship %d", v.ID(), v.ship.ID()))
			}
			w.detach(v)
			v.ship.release(v)
			return nil
		}
	}
	w.detach(b)
	return nil
}

// detach removes b from both tables without checks
func (w *World) detach(b Body) {
	id := b.ID()
	delete(w.entities, id)
	if w.occupied[b.Position()] == id {
		delete(w.occupied, b.Position())
	}
	b.base().world = nil
}

// relocate moves the occupancy entry of id from old to next
func (w *World) relocate(id ID, old, next physics.Position) {
	if w.occupied[old] == id {
		delete(w.occupied, old)
	}
	w.occupied[next] = id
}

// TimeToFirstCollision returns the time until the next wall or body
// collision, or +Inf when none is coming.
func (w *World) TimeToFirstCollision() (float64, error) {
	t, _, _, err := w.firstCollision()
	return t, err
}

// PositionOfFirstCollision returns where the next collision happens. For a
// wall collision it is the centre of the body at that moment.
func (w *World) PositionOfFirstCollision() (physics.Position, bool, error) {
	t, a, b, err := w.firstCollision()
	if err != nil || isInf(t) {
		return physics.Position{}, false, err
	}
	if b == nil {
		pos, ok := a.CollisionWithBoundaryPosition()
		return pos, ok, nil
	}
	return CollisionPosition(a, b)
}

// firstCollision returns the earliest collision time and the bodies
// involved; b is nil for a wall collision.
func (w *World) firstCollision() (t float64, a, b Body, err error) {
	if w.terminated {
		return 0, nil, nil, fmt.Errorf("time to first collision: world: %w", ErrTerminated)
	}
	t = math.Inf(1)
	bodies := w.Entities()
	for i, first := range bodies {
		if bt := first.TimeToCollisionWithBoundary(); bt < t {
			t, a, b = bt, first, nil
		}
		for _, second := range bodies[i+1:] {
			pt, err := TimeToCollision(first, second)
			if err != nil {
				return 0, nil, nil, fmt.Errorf("time to first collision: %w", err)
			}
			if pt < t {
				t, a, b = pt, first, second
			}
		}
	}
	return t, a, b, nil
}

// Terminate destroys the world. Every body is evicted and bullets in flight
// are released by their ships. Terminating twice has no further effect.
func (w *World) Terminate() {
	if w.terminated {
		return
	}
	w.terminated = true
	for _, b := range w.Entities() {
		if bullet, ok := b.(*Bullet); ok && bullet.ship != nil {
			bullet.ship.release(bullet)
		}
		b.base().world = nil
	}
	w.entities = make(map[ID]Body)
	w.occupied = make(map[physics.Position]ID)
	w.broad.Clear()
}
