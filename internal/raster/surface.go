// Package raster aggregates per-checklist predictions onto the equal-area
// sampling grid, producing the exportable abundance surface.
package raster

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/observation"
	"github.com/tphakala/ebird-abundance/internal/sampling"
)

// SurfaceCell is one grid cell of the prediction surface.
type SurfaceCell struct {
	Cell          sampling.Cell
	Center        orb.Point
	MeanEncounter float64
	MeanAbundance float64
	N             int
}

// Surface averages predictions per grid cell. Records and predictions must
// be aligned (as produced by PredictAll); records without a valid position
// are skipped. Cells are returned in row-major grid order.
func Surface(records []observation.Record, preds []hurdle.Prediction, cellSizeKm float64) ([]SurfaceCell, error) {
	if len(records) != len(preds) {
		return nil, errors.InvalidInputError(
			"surface requires aligned records and predictions, got %d/%d", len(records), len(preds))
	}
	if cellSizeKm <= 0 {
		cellSizeKm = sampling.DefaultCellSizeKm
	}

	type acc struct {
		encounter float64
		abundance float64
		n         int
	}
	cells := make(map[sampling.Cell]*acc)
	for i := range records {
		if records[i].ID != preds[i].ID {
			return nil, errors.InvalidInputError(
				"record %q and prediction %q misaligned at row %d", records[i].ID, preds[i].ID, i)
		}
		if !records[i].HasValidPosition() {
			continue
		}
		cell := sampling.CellForPoint(records[i].Position, cellSizeKm)
		a := cells[cell]
		if a == nil {
			a = &acc{}
			cells[cell] = a
		}
		a.encounter += preds[i].EncounterP
		a.abundance += preds[i].Abundance
		a.n++
	}

	out := make([]SurfaceCell, 0, len(cells))
	for cell, a := range cells {
		out = append(out, SurfaceCell{
			Cell:          cell,
			Center:        sampling.CellCenter(cell, cellSizeKm),
			MeanEncounter: a.encounter / float64(a.n),
			MeanAbundance: a.abundance / float64(a.n),
			N:             a.n,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Cell.Y != out[b].Cell.Y {
			return out[a].Cell.Y < out[b].Cell.Y
		}
		return out[a].Cell.X < out[b].Cell.X
	})
	return out, nil
}

// Bound returns the geographic extent covered by the surface cells.
func Bound(cells []SurfaceCell) orb.Bound {
	bound := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	for i := range cells {
		bound = bound.Extend(cells[i].Center)
	}
	return bound
}

// Write exports the surface as CSV for the downstream mapping tooling.
func Write(path string, cells []SurfaceCell) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"cell_x", "cell_y", "longitude", "latitude", "mean_encounter", "mean_abundance", "n"}); err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	for i := range cells {
		c := &cells[i]
		row := []string{
			fmt.Sprintf("%d", c.Cell.X),
			fmt.Sprintf("%d", c.Cell.Y),
			fmt.Sprintf("%g", c.Center.Lon()),
			fmt.Sprintf("%g", c.Center.Lat()),
			fmt.Sprintf("%g", c.MeanEncounter),
			fmt.Sprintf("%g", c.MeanAbundance),
			fmt.Sprintf("%d", c.N),
		}
		if err := w.Write(row); err != nil {
			return errors.New(err).Category(errors.CategoryFileIO).Build()
		}
	}

	w.Flush()
	return w.Error()
}
