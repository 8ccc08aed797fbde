// Package geometry implements the precise rectangle-vs-geometry intersection
// predicate used by the grid sweep.
//
// Any shared point counts as an intersection, including boundary contact.
// No epsilon tolerance is applied.
package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BoundIntersects reports whether the geometry shares at least one point with
// the bound. Only polygon and multipolygon geometries are supported; any other
// type returns false.
func BoundIntersects(b orb.Bound, g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return polygonIntersectsBound(geom, b)
	case orb.MultiPolygon:
		for _, poly := range geom {
			if polygonIntersectsBound(poly, b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// polygonIntersectsBound tests a single polygon (outer ring plus holes)
// against a bound.
//
// The polygon and the rectangle intersect exactly when one of these holds:
//  1. a ring vertex lies inside the rectangle,
//  2. a rectangle corner lies inside the polygon (hole-aware),
//  3. a ring edge crosses or touches a rectangle edge.
//
// If the rectangle sits entirely within a hole, none of the three hold and
// the result is correctly false.
func polygonIntersectsBound(p orb.Polygon, b orb.Bound) bool {
	if len(p) == 0 {
		return false
	}

	// Cheap reject on bounding boxes.
	if !b.Intersects(p.Bound()) {
		return false
	}

	// Ring vertex inside the rectangle.
	for _, ring := range p {
		for _, pt := range ring {
			if b.Contains(pt) {
				return true
			}
		}
	}

	// Rectangle corner inside the polygon.
	for _, corner := range boundCorners(b) {
		if planar.PolygonContains(p, corner) {
			return true
		}
	}

	// Ring edge against rectangle edge.
	edges := boundEdges(b)
	for _, ring := range p {
		for i := 0; i+1 < len(ring); i++ {
			for _, e := range edges {
				if segmentsIntersect(ring[i], ring[i+1], e[0], e[1]) {
					return true
				}
			}
		}
	}

	return false
}

func boundCorners(b orb.Bound) [4]orb.Point {
	return [4]orb.Point{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	}
}

func boundEdges(b orb.Bound) [4][2]orb.Point {
	c := boundCorners(b)
	return [4][2]orb.Point{
		{c[0], c[1]},
		{c[1], c[2]},
		{c[2], c[3]},
		{c[3], c[0]},
	}
}

// segmentsIntersect reports whether segments p1-p2 and q1-q2 share a point.
// Endpoint contact and collinear overlap both count.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases: a shared point exists only if the collinear endpoint
	// falls within the other segment's extent.
	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}

	return false
}

// orientation returns the sign of the cross product (b-a) x (c-a):
// positive for counter-clockwise, negative for clockwise, zero for collinear.
func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether collinear point c lies within the axis-aligned
// extent of segment a-b.
func onSegment(a, b, c orb.Point) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}
