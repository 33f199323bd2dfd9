package raster_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/observation"
	"github.com/tphakala/ebird-abundance/internal/raster"
)

func TestSurfaceAveragesPerCell(t *testing.T) {
	// Two records in the same 3 km cell, one far away
	records := []observation.Record{
		{ID: "a", Position: orb.Point{-76.000, 42.000}},
		{ID: "b", Position: orb.Point{-76.001, 42.001}},
		{ID: "c", Position: orb.Point{-75.000, 42.000}},
	}
	preds := []hurdle.Prediction{
		{ID: "a", EncounterP: 0.4, Abundance: 1.0},
		{ID: "b", EncounterP: 0.6, Abundance: 3.0},
		{ID: "c", EncounterP: 0.2, Abundance: 0.5},
	}

	cells, err := raster.Surface(records, preds, 3.0)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	var shared *raster.SurfaceCell
	for i := range cells {
		if cells[i].N == 2 {
			shared = &cells[i]
		}
	}
	require.NotNil(t, shared)
	assert.InDelta(t, 0.5, shared.MeanEncounter, 1e-9)
	assert.InDelta(t, 2.0, shared.MeanAbundance, 1e-9)

	bound := raster.Bound(cells)
	assert.True(t, bound.Contains(shared.Center))
}

func TestSurfaceRejectsMisalignment(t *testing.T) {
	records := []observation.Record{{ID: "a", Position: orb.Point{-76, 42}}}

	t.Run("length mismatch", func(t *testing.T) {
		_, err := raster.Surface(records, nil, 3.0)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("id mismatch", func(t *testing.T) {
		_, err := raster.Surface(records, []hurdle.Prediction{{ID: "z"}}, 3.0)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestSurfaceSkipsInvalidPositions(t *testing.T) {
	records := []observation.Record{
		{ID: "a", Position: orb.Point{-76, 42}},
		{ID: "bad", Position: orb.Point{-200, 42}},
	}
	preds := []hurdle.Prediction{{ID: "a", Abundance: 1}, {ID: "bad", Abundance: 9}}

	cells, err := raster.Surface(records, preds, 3.0)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 1, cells[0].N)
}
