// Package sampling implements case-controlled grid sampling: spatiotemporal
// stratified subsampling that corrects spatial/temporal clustering and class
// imbalance in checklist data.
package sampling

import (
	"math"

	"github.com/paulmach/orb"
)

// Mean Earth radius in kilometers (IUGG).
const earthRadiusKm = 6371.0088

// DefaultCellSizeKm is the grid resolution used when none is configured.
const DefaultCellSizeKm = 3.0

// Cell identifies one square of the equal-area sampling grid.
type Cell struct {
	X int
	Y int
}

// projectSinusoidal maps a lon/lat point to sinusoidal equal-area
// coordinates in kilometers. The projection keeps cell area uniform at any
// latitude; a plain lon/lat grid would shrink cells toward the poles.
func projectSinusoidal(p orb.Point) (x, y float64) {
	lonRad := p.Lon() * math.Pi / 180
	latRad := p.Lat() * math.Pi / 180
	x = earthRadiusKm * lonRad * math.Cos(latRad)
	y = earthRadiusKm * latRad
	return x, y
}

// CellForPoint assigns a point to its grid cell by projecting to equal-area
// coordinates and truncating to the cell size.
func CellForPoint(p orb.Point, cellSizeKm float64) Cell {
	x, y := projectSinusoidal(p)
	return Cell{
		X: int(math.Floor(x / cellSizeKm)),
		Y: int(math.Floor(y / cellSizeKm)),
	}
}

// CellCenter returns the approximate lon/lat center of a grid cell, the
// inverse of CellForPoint up to truncation.
func CellCenter(c Cell, cellSizeKm float64) orb.Point {
	x := (float64(c.X) + 0.5) * cellSizeKm
	y := (float64(c.Y) + 0.5) * cellSizeKm
	latRad := y / earthRadiusKm
	lat := latRad * 180 / math.Pi
	cosLat := math.Cos(latRad)
	if math.Abs(cosLat) < 1e-12 {
		return orb.Point{0, lat}
	}
	lon := x / (earthRadiusKm * cosLat) * 180 / math.Pi
	return orb.Point{lon, lat}
}
