// pkg/physics/collision.go
package physics

import "math"

// AccuracyFactor is the relative tolerance used when comparing distances
// between circles and walls. Circles closer than AccuracyFactor times the sum
// of their radii overlap; circles whose centre distance lies within
// [AccuracyFactor, 2-AccuracyFactor] times that sum touch.
const AccuracyFactor = 0.99

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Overlaps reports whether the centres of two circles are closer than the
// tolerance band allows.
func (c Circle) Overlaps(other Circle) bool {
	sum := c.Radius + other.Radius
	return c.Center.Distance(other.Center)-sum <= (AccuracyFactor-1)*sum
}

// Touches reports whether the centre distance of two circles lies within the
// tolerance band around the sum of their radii.
func (c Circle) Touches(other Circle) bool {
	sum := c.Radius + other.Radius
	d := c.Center.Distance(other.Center)
	return d >= AccuracyFactor*sum && d <= (2-AccuracyFactor)*sum
}

// Encloses reports whether other lies entirely inside c.
func (c Circle) Encloses(other Circle) bool {
	return c.Center.Distance(other.Center)+other.Radius <= c.Radius
}

// TimeToImpact returns the earliest time after which two circles moving with
// constant velocities va and vb touch. It returns +Inf when they never do.
// Rounding can make a pair that already touches report a tiny negative time;
// that is reported as 0.
func TimeToImpact(a, b Circle, va, vb Vector2D) float64 {
	dp := a.Center.Sub(b.Center)
	dv := va.Sub(vb)
	sum := a.Radius + b.Radius

	dvdp := dv.Dot(dp)
	if dvdp >= 0 {
		return math.Inf(1)
	}

	dvdv := dv.LengthSquared()
	discriminant := dvdp*dvdp - dvdv*(dp.LengthSquared()-sum*sum)
	if discriminant <= 0 {
		return math.Inf(1)
	}

	t := -(dvdp + math.Sqrt(discriminant)) / dvdv
	if t < 0 {
		return 0
	}
	return t
}

// ContactPoint returns the point on the line of centres at distance a.Radius
// from a and b.Radius from b, for two touching circles.
func ContactPoint(a, b Circle) Vector2D {
	sum := a.Radius + b.Radius
	return a.Center.Scale(b.Radius).Add(b.Center.Scale(a.Radius)).Scale(1 / sum)
}

// ElasticImpulse returns the impulse J exchanged by two touching discs in a
// perfectly elastic collision. The new velocities are v1 - J/m1 and v2 + J/m2.
// sumRadii is the distance between the centres at contact.
func ElasticImpulse(p1, p2, v1, v2 Vector2D, m1, m2, sumRadii float64) Vector2D {
	dp := p1.Sub(p2)
	dv := v1.Sub(v2)
	j := 2 * m1 * m2 * dv.Dot(dp) / (sumRadii * (m1 + m2))
	return dp.Scale(j / sumRadii)
}

// Walls is a set of world boundaries. The world spans [0, width] x [0, height].
type Walls uint8

const (
	WallLeft Walls = 1 << iota
	WallRight
	WallBottom
	WallTop
)

// Vertical reports whether the set contains the left or right wall.
func (w Walls) Vertical() bool {
	return w&(WallLeft|WallRight) != 0
}

// Horizontal reports whether the set contains the bottom or top wall.
func (w Walls) Horizontal() bool {
	return w&(WallBottom|WallTop) != 0
}

// TimeToWall returns the time after which a circle moving with velocity v
// touches a wall of a width x height box, or +Inf if it is not moving.
func TimeToWall(c Circle, v Vector2D, width, height float64) float64 {
	return math.Min(
		axisTimeToWall(c.Center.X, v.X, c.Radius, width),
		axisTimeToWall(c.Center.Y, v.Y, c.Radius, height),
	)
}

func axisTimeToWall(pos, vel, radius, size float64) float64 {
	var t float64
	switch {
	case vel < 0:
		t = (radius - pos) / vel
	case vel > 0:
		t = (size - radius - pos) / vel
	default:
		return math.Inf(1)
	}
	if t < 0 {
		return 0
	}
	return t
}

// TouchedWalls returns the walls a circle touches within the tolerance band.
func TouchedWalls(c Circle, width, height float64) Walls {
	limit := (2 - AccuracyFactor) * c.Radius
	var walls Walls
	if c.Center.X <= limit {
		walls |= WallLeft
	}
	if width-c.Center.X <= limit {
		walls |= WallRight
	}
	if c.Center.Y <= limit {
		walls |= WallBottom
	}
	if height-c.Center.Y <= limit {
		walls |= WallTop
	}
	return walls
}

// Approached filters walls down to those the velocity v is heading into.
func (w Walls) Approached(v Vector2D) Walls {
	var result Walls
	if w&WallLeft != 0 && v.X < 0 {
		result |= WallLeft
	}
	if w&WallRight != 0 && v.X > 0 {
		result |= WallRight
	}
	if w&WallBottom != 0 && v.Y < 0 {
		result |= WallBottom
	}
	if w&WallTop != 0 && v.Y > 0 {
		result |= WallTop
	}
	return result
}

// Reflect mirrors the velocity components orthogonal to the given walls,
// whichever way they point.
func Reflect(v Vector2D, walls Walls) Vector2D {
	if walls.Vertical() {
		v.X = -v.X
	}
	if walls.Horizontal() {
		v.Y = -v.Y
	}
	return v
}

// Inside reports whether a circle lies inside a width x height box, allowing
// the circle to reach over each wall by (1-AccuracyFactor) of its radius.
func Inside(c Circle, width, height float64) bool {
	margin := c.Radius * AccuracyFactor
	return c.Center.X >= margin && c.Center.Y >= margin &&
		width-c.Center.X >= margin && height-c.Center.Y >= margin
}

// WallContactPoint returns the point where a circle touches the given walls:
// its centre pushed out by the radius towards each of them.
func WallContactPoint(c Circle, walls Walls) Vector2D {
	p := c.Center
	switch {
	case walls&WallLeft != 0:
		p.X -= c.Radius
	case walls&WallRight != 0:
		p.X += c.Radius
	}
	switch {
	case walls&WallBottom != 0:
		p.Y -= c.Radius
	case walls&WallTop != 0:
		p.Y += c.Radius
	}
	return p
}
