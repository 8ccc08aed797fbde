package geometry

import (
	"testing"

	"github.com/paulmach/orb"
)

func rect(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestBoundIntersectsPolygon(t *testing.T) {
	tests := []struct {
		name string
		b    orb.Bound
		g    orb.Geometry
		want bool
	}{
		{
			name: "disjoint",
			b:    rect(0, 0, 1, 1),
			g:    square(5, 5, 6, 6),
			want: false,
		},
		{
			name: "vertex inside bound",
			b:    rect(0, 0, 2, 2),
			g:    square(1, 1, 5, 5),
			want: true,
		},
		{
			name: "bound inside polygon",
			b:    rect(2, 2, 3, 3),
			g:    square(0, 0, 10, 10),
			want: true,
		},
		{
			name: "polygon inside bound",
			b:    rect(0, 0, 10, 10),
			g:    square(4, 4, 5, 5),
			want: true,
		},
		{
			// A wide thin polygon crossing the bound without any vertex
			// inside it and without containing a bound corner.
			name: "edges cross only",
			b:    rect(4, 0, 5, 10),
			g:    square(0, 4, 10, 5),
			want: true,
		},
		{
			name: "shared edge only",
			b:    rect(0, 0, 1, 1),
			g:    square(1, 0, 2, 1),
			want: true,
		},
		{
			name: "shared corner only",
			b:    rect(0, 0, 1, 1),
			g:    square(1, 1, 2, 2),
			want: true,
		},
		{
			name: "bound inside hole",
			b:    rect(4, 4, 5, 5),
			g: orb.Polygon{
				orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
				orb.Ring{{2, 2}, {2, 8}, {8, 8}, {8, 2}, {2, 2}},
			},
			want: false,
		},
		{
			name: "bound straddles hole edge",
			b:    rect(1, 4, 3, 5),
			g: orb.Polygon{
				orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
				orb.Ring{{2, 2}, {2, 8}, {8, 8}, {8, 2}, {2, 2}},
			},
			want: true,
		},
		{
			name: "multipolygon one part hits",
			b:    rect(0, 0, 1, 1),
			g: orb.MultiPolygon{
				square(50, 50, 60, 60),
				square(0.5, 0.5, 2, 2),
			},
			want: true,
		},
		{
			name: "multipolygon no part hits",
			b:    rect(0, 0, 1, 1),
			g: orb.MultiPolygon{
				square(50, 50, 60, 60),
				square(-60, -60, -50, -50),
			},
			want: false,
		},
		{
			name: "empty polygon",
			b:    rect(0, 0, 1, 1),
			g:    orb.Polygon{},
			want: false,
		},
		{
			name: "unsupported geometry type",
			b:    rect(0, 0, 1, 1),
			g:    orb.Point{0.5, 0.5},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoundIntersects(tt.b, tt.g); got != tt.want {
				t.Errorf("BoundIntersects(%v, %v) = %v, want %v", tt.b, tt.g, got, tt.want)
			}
		})
	}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, q1, q2 orb.Point
		want           bool
	}{
		{"crossing", orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0}, true},
		{"disjoint parallel", orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1}, false},
		{"endpoint touch", orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{1, 1}, orb.Point{2, 0}, true},
		{"T contact", orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{1, 0}, orb.Point{1, 5}, true},
		{"collinear overlap", orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{1, 0}, orb.Point{3, 0}, true},
		{"collinear disjoint", orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{2, 0}, orb.Point{3, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentsIntersect(tt.p1, tt.p2, tt.q1, tt.q2); got != tt.want {
				t.Errorf("segmentsIntersect = %v, want %v", got, tt.want)
			}
			// The predicate is symmetric in its two segments.
			if got := segmentsIntersect(tt.q1, tt.q2, tt.p1, tt.p2); got != tt.want {
				t.Errorf("segmentsIntersect (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}
