// pkg/entity/resolve.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-asteroids/pkg/physics"
)

// contact is a pair of touching bodies with the velocities they collide with
type contact struct {
	a, b   Body
	va, vb physics.Velocity
}

type resolver func(c contact) error

// resolvers holds one collision response per ordered pair of kinds
var resolvers = [2][2]resolver{
	KindShip: {
		KindShip:   resolveShips,
		KindBullet: resolveShipBullet,
	},
	KindBullet: {
		KindShip:   resolveBulletShip,
		KindBullet: resolveBullets,
	},
}

// ResolveCollision applies the collision response of two bodies that touch
// in the same world: ships bounce elastically, a ship takes back its own
// bullet, and any other pair destroys both bodies.
func ResolveCollision(a, b Body) error {
	if a.IsTerminated() {
		return fmt.Errorf("resolve collision: %w", terminatedError(a))
	}
	if b.IsTerminated() {
		return fmt.Errorf("resolve collision: %w", terminatedError(b))
	}
	if a.World() == nil || a.World() != b.World() {
		return fmt.Errorf("resolve collision: %w", preconditionf("%s %d and %s %d do not share a world", a.Kind(), a.ID(), b.Kind(), b.ID()))
	}
	if !ApparentlyCollide(a, b) {
		return fmt.Errorf("resolve collision: %w", preconditionf("%s %d and %s %d do not touch", a.Kind(), a.ID(), b.Kind(), b.ID()))
	}
	return resolve(contact{a: a, b: b, va: a.Velocity(), vb: b.Velocity()})
}

func resolve(c contact) error {
	return resolvers[c.a.Kind()][c.b.Kind()](c)
}

// resolveShips exchanges momentum along the line of centres
func resolveShips(c contact) error {
	s1, s2 := c.a.(*Ship), c.b.(*Ship)
	m1, m2 := s1.TotalMass(), s2.TotalMass()
	j := physics.ElasticImpulse(
		s1.position.Vec(), s2.position.Vec(),
		c.va.Vec(), c.vb.Vec(),
		m1, m2, s1.radius+s2.radius,
	)
	if err := s1.setVelocityVec(c.va.Vec().Sub(j.Scale(1 / m1))); err != nil {
		return fmt.Errorf("resolve ships %d and %d: %w", s1.ID(), s2.ID(), err)
	}
	if err := s2.setVelocityVec(c.vb.Vec().Add(j.Scale(1 / m2))); err != nil {
		return fmt.Errorf("resolve ships %d and %d: %w", s1.ID(), s2.ID(), err)
	}
	return nil
}

func resolveShipBullet(c contact) error {
	c.a.(*Ship).collideWithBullet(c.b.(*Bullet))
	return nil
}

func resolveBulletShip(c contact) error {
	c.b.(*Ship).collideWithBullet(c.a.(*Bullet))
	return nil
}

func resolveBullets(c contact) error {
	c.a.Terminate()
	c.b.Terminate()
	return nil
}
