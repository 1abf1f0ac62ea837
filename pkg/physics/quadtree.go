// pkg/physics/quadtree.go
package physics

// maxQuadTreeDepth bounds subdivision so that many coincident points cannot
// recurse forever; nodes at this depth grow past their capacity instead.
const maxQuadTreeDepth = 16

// QuadTree for spatial partitioning
type QuadTree[T any] struct {
	Boundary  Rect
	Capacity  int
	Points    []Vector2D
	Objects   []T
	Divided   bool
	depth     int
	NorthWest *QuadTree[T]
	NorthEast *QuadTree[T]
	SouthWest *QuadTree[T]
	SouthEast *QuadTree[T]
}

// Rect represents a rectangular area
type Rect struct {
	Center Vector2D
	Width  float64
	Height float64
}

// NewRect returns the rectangle spanning [minX, maxX] x [minY, maxY].
func NewRect(minX, minY, maxX, maxY float64) Rect {
	return Rect{
		Center: Vector2D{X: minX/2 + maxX/2, Y: minY/2 + maxY/2},
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// ContainsClosed reports whether point lies inside the rectangle, all four
// edges inclusive.
func (r Rect) ContainsClosed(point Vector2D) bool {
	return point.X >= r.Center.X-r.Width/2 &&
		point.X <= r.Center.X+r.Width/2 &&
		point.Y >= r.Center.Y-r.Height/2 &&
		point.Y <= r.Center.Y+r.Height/2
}

// NewQuadTree creates a new quad tree with the given boundary and capacity
func NewQuadTree[T any](boundary Rect, capacity int) *QuadTree[T] {
	return newQuadTree[T](boundary, capacity, 0)
}

func newQuadTree[T any](boundary Rect, capacity, depth int) *QuadTree[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &QuadTree[T]{
		Boundary: boundary,
		Capacity: capacity,
		Points:   make([]Vector2D, 0, capacity),
		Objects:  make([]T, 0, capacity),
		depth:    depth,
	}
}

// Insert adds object at point. It returns false if point lies outside the
// tree's boundary.
func (qt *QuadTree[T]) Insert(point Vector2D, object T) bool {
	if !qt.Boundary.ContainsClosed(point) {
		return false
	}

	if (len(qt.Points) < qt.Capacity && !qt.Divided) || qt.depth >= maxQuadTreeDepth {
		qt.Points = append(qt.Points, point)
		qt.Objects = append(qt.Objects, object)
		return true
	}

	if !qt.Divided {
		qt.Subdivide()
	}

	return qt.NorthWest.Insert(point, object) ||
		qt.NorthEast.Insert(point, object) ||
		qt.SouthWest.Insert(point, object) ||
		qt.SouthEast.Insert(point, object)
}

// Subdivide splits the quadtree into four quadrants
func (qt *QuadTree[T]) Subdivide() {
	x := qt.Boundary.Center.X
	y := qt.Boundary.Center.Y
	w := qt.Boundary.Width / 2
	h := qt.Boundary.Height / 2

	nw := Rect{Center: Vector2D{X: x - w/2, Y: y + h/2}, Width: w, Height: h}
	ne := Rect{Center: Vector2D{X: x + w/2, Y: y + h/2}, Width: w, Height: h}
	sw := Rect{Center: Vector2D{X: x - w/2, Y: y - h/2}, Width: w, Height: h}
	se := Rect{Center: Vector2D{X: x + w/2, Y: y - h/2}, Width: w, Height: h}

	qt.NorthWest = newQuadTree[T](nw, qt.Capacity, qt.depth+1)
	qt.NorthEast = newQuadTree[T](ne, qt.Capacity, qt.depth+1)
	qt.SouthWest = newQuadTree[T](sw, qt.Capacity, qt.depth+1)
	qt.SouthEast = newQuadTree[T](se, qt.Capacity, qt.depth+1)
	qt.Divided = true
}

// Query returns all objects whose point lies inside area, edges included
func (qt *QuadTree[T]) Query(area Rect) []T {
	found := make([]T, 0)
	qt.query(area, &found)
	return found
}

func (qt *QuadTree[T]) query(area Rect, found *[]T) {
	// If area doesn't intersect boundary, nothing below can match
	if !qt.intersects(area) {
		return
	}

	for i, point := range qt.Points {
		if area.ContainsClosed(point) {
			*found = append(*found, qt.Objects[i])
		}
	}

	if !qt.Divided {
		return
	}

	qt.NorthWest.query(area, found)
	qt.NorthEast.query(area, found)
	qt.SouthWest.query(area, found)
	qt.SouthEast.query(area, found)
}

// Clear removes every object and collapses the tree to its root
func (qt *QuadTree[T]) Clear() {
	qt.Points = qt.Points[:0]
	var zero T
	for i := range qt.Objects {
		qt.Objects[i] = zero
	}
	qt.Objects = qt.Objects[:0]
	qt.Divided = false
	qt.NorthWest = nil
	qt.NorthEast = nil
	qt.SouthWest = nil
	qt.SouthEast = nil
}

func (qt *QuadTree[T]) intersects(area Rect) bool {
	return !(area.Center.X-area.Width/2 > qt.Boundary.Center.X+qt.Boundary.Width/2 ||
		area.Center.X+area.Width/2 < qt.Boundary.Center.X-qt.Boundary.Width/2 ||
		area.Center.Y-area.Height/2 > qt.Boundary.Center.Y+qt.Boundary.Height/2 ||
		area.Center.Y+area.Height/2 < qt.Boundary.Center.Y-qt.Boundary.Height/2)
}
