package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLng, minLat, maxLng, maxLat float64) *Polygon {
	return NewPolygon(
		[]float64{minLng, minLat},
		[]float64{maxLng, minLat},
		[]float64{maxLng, maxLat},
		[]float64{minLng, maxLat},
		[]float64{minLng, minLat},
	)
}

func TestContains(t *testing.T) {
	civilLines := square(81.80, 25.40, 81.90, 25.50)

	tests := []struct {
		name     string
		lng, lat float64
		want     bool
	}{
		{"inside", 81.84, 25.45, true},
		{"outside east", 82.00, 25.45, false},
		{"origin", 0, 0, false},
		{"on edge", 81.80, 25.45, true},
		{"on vertex", 81.90, 25.50, true},
		{"swapped axes", 25.45, 81.84, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, civilLines.Contains(tt.lng, tt.lat))
		})
	}
}

func TestContainsConcaveAndHoles(t *testing.T) {
	// L shape: the notch at the top right is outside.
	l := NewPolygon(
		[]float64{0, 0}, []float64{4, 0}, []float64{4, 2},
		[]float64{2, 2}, []float64{2, 4}, []float64{0, 4}, []float64{0, 0},
	)
	assert.True(t, l.Contains(1, 3))
	assert.True(t, l.Contains(3, 1))
	assert.False(t, l.Contains(3, 3))

	withHole := square(0, 0, 10, 10)
	withHole.Coordinates = append(withHole.Coordinates, square(4, 4, 6, 6).Coordinates[0])
	assert.False(t, withHole.Contains(5, 5))
	assert.True(t, withHole.Contains(4, 5))
	assert.True(t, withHole.Contains(1, 1))

	var nilPolygon *Polygon
	assert.False(t, nilPolygon.Contains(0, 0))
}

func TestValidate(t *testing.T) {
	require.NoError(t, square(81.80, 25.40, 81.90, 25.50).Validate())
	require.NoError(t, NewPolygon(
		[]float64{0, 0}, []float64{1, 0}, []float64{2, 0}, []float64{2, 2}, []float64{0, 2}, []float64{0, 0},
	).Validate(), "collinear vertices along an edge are fine")
	require.NoError(t, NewPolygon(
		[]float64{0, 0}, []float64{4, 0}, []float64{4, 2}, []float64{2, 2}, []float64{2, 4}, []float64{0, 4}, []float64{0, 0},
	).Validate())

	tests := []struct {
		name string
		p    *Polygon
	}{
		{"wrong type", &Polygon{Type: "Point", Coordinates: square(0, 0, 1, 1).Coordinates}},
		{"no rings", &Polygon{Type: TypePolygon}},
		{"too few positions", NewPolygon([]float64{0, 0}, []float64{1, 0}, []float64{0, 0})},
		{"not closed", NewPolygon([]float64{0, 0}, []float64{1, 0}, []float64{1, 1}, []float64{0, 1})},
		{"out of range", square(170, 0, 190, 1)},
		{"short position", NewPolygon([]float64{0}, []float64{1, 0}, []float64{1, 1}, []float64{0})},
		{"bowtie", NewPolygon([]float64{0, 0}, []float64{1, 1}, []float64{1, 0}, []float64{0, 1}, []float64{0, 0})},
		{"single repeated point", NewPolygon([]float64{0, 0}, []float64{0, 0}, []float64{0, 0}, []float64{0, 0})},
		{"repeated vertex", NewPolygon([]float64{0, 0}, []float64{1, 0}, []float64{1, 0}, []float64{1, 1}, []float64{0, 0})},
		{"collinear", NewPolygon([]float64{0, 0}, []float64{1, 0}, []float64{2, 0}, []float64{0, 0})},
		{"spike", NewPolygon([]float64{0, 0}, []float64{2, 0}, []float64{2, 2}, []float64{2, 3}, []float64{2, 1}, []float64{0, 2}, []float64{0, 0})},
		{"edges touch", NewPolygon(
			[]float64{0, 0}, []float64{4, 0}, []float64{4, 4}, []float64{2, 0}, []float64{0, 4}, []float64{0, 0},
		)},
		{"hole crosses itself", func() *Polygon {
			p := square(0, 0, 10, 10)
			p.Coordinates = append(p.Coordinates, [][]float64{{2, 2}, {4, 4}, {4, 2}, {2, 4}, {2, 2}})
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.p.Validate(), ErrInvalidPolygon)
		})
	}
}
