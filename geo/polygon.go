// Package geo holds the GeoJSON polygon used for ward boundaries and the
// point-in-polygon test used wherever the store cannot run $geoIntersects.
package geo

import (
	"errors"
	"fmt"
)

const TypePolygon = "Polygon"

// Polygon is a GeoJSON Polygon. Positions are [longitude, latitude]. The first
// ring is the outer boundary, any further rings are holes.
type Polygon struct {
	Type        string        `bson:"type" json:"type"`
	Coordinates [][][]float64 `bson:"coordinates" json:"coordinates"`
}

// NewPolygon builds a single-ring polygon from [lng, lat] positions.
func NewPolygon(ring ...[]float64) *Polygon {
	return &Polygon{Type: TypePolygon, Coordinates: [][][]float64{ring}}
}

var ErrInvalidPolygon = errors.New("invalid polygon")

// Validate checks that every ring is closed, has at least four positions and
// stays within geographic bounds. Rings must also be simple: no repeated
// consecutive positions, a non-zero area and no edges that cross or fold back.
func (p *Polygon) Validate() error {
	if p.Type != TypePolygon {
		return fmt.Errorf("%w: type must be %q", ErrInvalidPolygon, TypePolygon)
	}
	if len(p.Coordinates) == 0 {
		return fmt.Errorf("%w: no rings", ErrInvalidPolygon)
	}
	for i, ring := range p.Coordinates {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has %d positions, need at least 4", ErrInvalidPolygon, i, len(ring))
		}
		for j, pos := range ring {
			if len(pos) < 2 {
				return fmt.Errorf("%w: ring %d position %d is not [lng, lat]", ErrInvalidPolygon, i, j)
			}
			if pos[0] < -180 || pos[0] > 180 || pos[1] < -90 || pos[1] > 90 {
				return fmt.Errorf("%w: ring %d position %d out of range", ErrInvalidPolygon, i, j)
			}
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return fmt.Errorf("%w: ring %d is not closed", ErrInvalidPolygon, i)
		}
		if err := checkSimple(i, ring); err != nil {
			return err
		}
	}
	return nil
}

// checkSimple rejects the rings a 2dsphere index refuses to extract keys from.
func checkSimple(i int, ring [][]float64) error {
	edges := len(ring) - 1
	for j := 0; j < edges; j++ {
		if samePosition(ring[j], ring[j+1]) {
			return fmt.Errorf("%w: ring %d repeats position %d", ErrInvalidPolygon, i, j+1)
		}
	}

	for j := 0; j < edges; j++ {
		a, b := ring[j], ring[j+1]
		next := ring[1]
		if j+2 <= edges {
			next = ring[j+2]
		}
		if orientation(a, b, next) == 0 && (b[0]-a[0])*(next[0]-b[0])+(b[1]-a[1])*(next[1]-b[1]) < 0 {
			return fmt.Errorf("%w: ring %d folds back at position %d", ErrInvalidPolygon, i, j+1)
		}
	}

	for j := 0; j < edges; j++ {
		for k := j + 2; k < edges; k++ {
			if j == 0 && k == edges-1 {
				continue
			}
			if segmentsIntersect(ring[j], ring[j+1], ring[k], ring[k+1]) {
				return fmt.Errorf("%w: ring %d edges %d and %d cross", ErrInvalidPolygon, i, j, k)
			}
		}
	}

	if signedArea(ring) == 0 {
		return fmt.Errorf("%w: ring %d has no area", ErrInvalidPolygon, i)
	}
	return nil
}

func samePosition(a, b []float64) bool {
	return a[0] == b[0] && a[1] == b[1]
}

// signedArea is the shoelace sum of a closed ring, doubled.
func signedArea(ring [][]float64) float64 {
	var sum float64
	for j := 0; j+1 < len(ring); j++ {
		sum += ring[j][0]*ring[j+1][1] - ring[j+1][0]*ring[j][1]
	}
	return sum
}

// orientation is positive for a counter-clockwise turn a->b->c, negative for
// clockwise and zero when the three positions are collinear.
func orientation(a, b, c []float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// segmentsIntersect reports whether segment p1p2 touches segment q1q2,
// including collinear overlap and shared endpoints.
func segmentsIntersect(p1, p2, q1, q2 []float64) bool {
	d1 := sign(orientation(q1, q2, p1))
	d2 := sign(orientation(q1, q2, p2))
	d3 := sign(orientation(p1, p2, q1))
	d4 := sign(orientation(p1, p2, q2))
	if d1 != d2 && d3 != d4 && d1 != 0 && d2 != 0 && d3 != 0 && d4 != 0 {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// onSegment assumes c is collinear with ab.
func onSegment(a, b, c []float64) bool {
	return c[0] >= min(a[0], b[0]) && c[0] <= max(a[0], b[0]) &&
		c[1] >= min(a[1], b[1]) && c[1] <= max(a[1], b[1])
}

// Contains reports whether (lng, lat) lies inside the outer ring and outside
// every hole. Points on an edge are treated as inside, matching $geoIntersects.
func (p *Polygon) Contains(lng, lat float64) bool {
	if p == nil || len(p.Coordinates) == 0 {
		return false
	}
	if !ringContains(p.Coordinates[0], lng, lat) {
		return false
	}
	for _, hole := range p.Coordinates[1:] {
		if ringContains(hole, lng, lat) && !onBoundary(hole, lng, lat) {
			return false
		}
	}
	return true
}

// ringContains is the even-odd ray casting test with a horizontal ray towards +lng.
func ringContains(ring [][]float64, x, y float64) bool {
	if onBoundary(ring, x, y) {
		return true
	}
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func onBoundary(ring [][]float64, x, y float64) bool {
	const eps = 1e-12
	for i := 0; i+1 < len(ring); i++ {
		ax, ay := ring[i][0], ring[i][1]
		bx, by := ring[i+1][0], ring[i+1][1]
		cross := (bx-ax)*(y-ay) - (by-ay)*(x-ax)
		if cross > eps || cross < -eps {
			continue
		}
		if x >= min(ax, bx)-eps && x <= max(ax, bx)+eps && y >= min(ay, by)-eps && y <= max(ay, by)+eps {
			return true
		}
	}
	return false
}
