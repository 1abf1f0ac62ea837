// pkg/entity/evolve.go
package entity

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-asteroids/pkg/physics"
	"github.com/opd-ai/go-asteroids/pkg/validation"
)

// maxStalledInstants bounds the number of consecutive zero-length steps in
// one Evolve call, each of which must resolve at least one collision.
const maxStalledInstants = 64

type pairContact struct {
	a, b Body
	at   physics.Position
}

type wallContact struct {
	body  Body
	walls physics.Walls
	at    physics.Position
}

// Evolve advances the world by duration. Time runs from one collision to the
// next; at each collision instant every body is moved there, and all the
// collisions apparent at that instant are resolved once, body pairs first.
// listener may be nil.
func (w *World) Evolve(duration float64, listener CollisionListener) error {
	if err := validation.ValidateComponent(duration); err != nil {
		return fmt.Errorf("evolve: %w", err)
	}
	if err := validation.ValidateDuration(duration); err != nil {
		return fmt.Errorf("evolve: %w", err)
	}
	if w.terminated {
		return fmt.Errorf("evolve: world: %w", ErrTerminated)
	}

	remaining := duration
	stalled := 0
	for {
		t, err := w.TimeToFirstCollision()
		if err != nil {
			return fmt.Errorf("evolve: %w", err)
		}
		if t >= remaining {
			break
		}
		if t > 0 {
			if err := w.advance(t); err != nil {
				return fmt.Errorf("evolve: %w", err)
			}
			remaining -= t
			stalled = 0
		} else {
			stalled++
		}

		resolved, err := w.resolveInstant(listener)
		if err != nil {
			return fmt.Errorf("evolve: %w", err)
		}
		if t <= 0 && (resolved == 0 || stalled > maxStalledInstants) {
			break
		}
	}
	if err := w.advance(remaining); err != nil {
		return fmt.Errorf("evolve: %w", err)
	}
	return nil
}

// advance moves every body by duration. All new states are computed and
// checked before any body changes.
func (w *World) advance(duration float64) error {
	bodies := w.Entities()
	plans := make([]movePlan, len(bodies))
	for i, b := range bodies {
		plan, err := b.planMove(duration)
		if err != nil {
			return fmt.Errorf("advance %s %d: %w", b.Kind(), b.ID(), err)
		}
		if !w.inside(plan.position, b.Radius()) {
			return fmt.Errorf("advance %s %d to %v: %w", b.Kind(), b.ID(), plan.position, ErrOutOfBounds)
		}
		plans[i] = plan
	}

	for _, b := range bodies {
		if w.occupied[b.Position()] == b.ID() {
			delete(w.occupied, b.Position())
		}
	}
	for i, b := range bodies {
		// Detach from the occupancy table while applying so that place does
		// not see stale entries.
		base := b.base()
		base.world = nil
		b.applyMove(plans[i])
		base.world = w
		w.occupied[b.Position()] = b.ID()
	}
	return nil
}

// resolveInstant resolves every collision apparent now and returns how many
// were resolved. Pairs are resolved one after another against the current
// velocities; a pair that stopped approaching is left for a later instant.
func (w *World) resolveInstant(listener CollisionListener) (int, error) {
	pairs, walls := w.apparentCollisions()
	resolved := 0

	for _, c := range pairs {
		if !w.holds(c.a) || !w.holds(c.b) {
			continue
		}
		// Earlier pairs of this instant may have changed the velocities.
		va, vb := c.a.Velocity(), c.b.Velocity()
		if !approaching(c.a, c.b, va, vb) {
			continue
		}
		if err := resolve(contact{a: c.a, b: c.b, va: va, vb: vb}); err != nil {
			return resolved, err
		}
		resolved++
		if listener != nil {
			listener.ObjectCollision(c.a, c.b, c.at)
		}
	}

	for _, c := range walls {
		if !w.holds(c.body) {
			continue
		}
		hit := c.walls.Approached(c.body.Velocity().Vec())
		if hit == 0 {
			continue
		}
		if err := c.body.bounce(hit); err != nil {
			return resolved, err
		}
		resolved++
		if listener != nil {
			listener.BoundaryCollision(c.body, c.at)
		}
	}
	return resolved, nil
}

func (w *World) holds(b Body) bool {
	return !b.IsTerminated() && b.World() == w
}

// apparentCollisions finds the approaching pairs that touch and the bodies
// touching a wall they move towards, both ordered by ID.
func (w *World) apparentCollisions() ([]pairContact, []wallContact) {
	bodies := w.Entities()

	w.broad.Clear()
	maxRadius := 0.0
	for _, b := range bodies {
		w.broad.Insert(b.Position().Vec(), b)
		if b.Radius() > maxRadius {
			maxRadius = b.Radius()
		}
	}

	var pairs []pairContact
	var walls []wallContact
	for _, a := range bodies {
		reach := (2 - AccuracyFactor) * (a.Radius() + maxRadius)
		area := physics.Rect{Center: a.Position().Vec(), Width: 2 * reach, Height: 2 * reach}
		for _, b := range w.broad.Query(area) {
			if b.ID() <= a.ID() || !ApparentlyCollide(a, b) {
				continue
			}
			if !approaching(a, b, a.Velocity(), b.Velocity()) {
				continue
			}
			pairs = append(pairs, pairContact{a: a, b: b, at: contactPosition(a, b)})
		}

		touched := a.base().touchedWalls().Approached(a.Velocity().Vec())
		if touched != 0 {
			walls = append(walls, wallContact{body: a, walls: touched, at: boundaryContactPosition(a, touched)})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a.ID() != pairs[j].a.ID() {
			return pairs[i].a.ID() < pairs[j].a.ID()
		}
		return pairs[i].b.ID() < pairs[j].b.ID()
	})
	return pairs, walls
}
