package geometry

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// HitTest returns the top-most clickable rectangle containing p, where p is
// in display coordinates. rects must be in the order produced by
// [DeriveRectangles]. Rectangles with a singular transform are skipped.
func HitTest(rects []Rectangle, p vec.Vec2) (Rectangle, bool) {
	for _, r := range rects {
		if !r.IsClickable {
			continue
		}
		local, ok := inverseApply(r.Transform, p)
		if !ok {
			continue
		}
		if local.X >= r.TopLeft.X && local.X <= r.BottomRight.X &&
			local.Y >= r.TopLeft.Y && local.Y <= r.BottomRight.Y {
			return r, true
		}
	}
	return Rectangle{}, false
}

// Find returns the rectangle with the given ID.
func Find(rects []Rectangle, id string) (Rectangle, bool) {
	for _, r := range rects {
		if r.ID == id {
			return r, true
		}
	}
	return Rectangle{}, false
}

// Apply maps p through m. The zero matrix is treated as the identity, since
// snapshots without transform data decode to it.
func Apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	if m == (matrix.Matrix{}) {
		return p
	}
	return vec.Vec2{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// inverseApply maps p through the inverse of m.
func inverseApply(m matrix.Matrix, p vec.Vec2) (vec.Vec2, bool) {
	if m == (matrix.Matrix{}) {
		return p, true
	}
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return vec.Vec2{}, false
	}
	x, y := p.X-m[4], p.Y-m[5]
	return vec.Vec2{
		X: (m[3]*x - m[2]*y) / det,
		Y: (m[0]*y - m[1]*x) / det,
	}, true
}

// Bounds returns the axis-aligned box enclosing every transformed rectangle.
// It returns false for an empty slice.
func Bounds(rects []Rectangle) (lo, hi vec.Vec2, ok bool) {
	for i, r := range rects {
		corners := [4]vec.Vec2{
			Apply(r.Transform, r.TopLeft),
			Apply(r.Transform, vec.Vec2{X: r.BottomRight.X, Y: r.TopLeft.Y}),
			Apply(r.Transform, r.BottomRight),
			Apply(r.Transform, vec.Vec2{X: r.TopLeft.X, Y: r.BottomRight.Y}),
		}
		for j, c := range corners {
			if i == 0 && j == 0 {
				lo, hi = c, c
				continue
			}
			lo.X, lo.Y = min(lo.X, c.X), min(lo.Y, c.Y)
			hi.X, hi.Y = max(hi.X, c.X), max(hi.Y, c.Y)
		}
	}
	return lo, hi, len(rects) > 0
}
