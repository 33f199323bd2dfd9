package datastore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/datastore"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
)

func openStore(t *testing.T) *datastore.DataStore {
	t.Helper()
	ds := datastore.New(filepath.Join(t.TempDir(), "predictions.db"))
	require.NoError(t, ds.Open())
	t.Cleanup(func() { require.NoError(t, ds.Close()) })
	return ds
}

func TestSaveAndFetchRun(t *testing.T) {
	ds := openStore(t)

	count := 4
	preds := []hurdle.Prediction{
		{ID: "S001", EncounterP: 0.8, Count: 3.5, Abundance: 2.8, InRange: true, ObsDetected: true, ObsCount: &count},
		{ID: "S002", EncounterP: 0.1, Count: 0.5, Abundance: 0.05, InRange: false, ObsDetected: false},
	}

	run := &datastore.Run{
		RunID:             datastore.NewRunID(),
		Species:           "woothr",
		Threshold:         0.43,
		SchemaFingerprint: "abc123",
	}
	require.NoError(t, ds.SaveRun(run, preds))

	got, err := ds.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "woothr", got.Species)
	assert.InDelta(t, 0.43, got.Threshold, 1e-12)
	assert.False(t, got.CreatedAt.IsZero())

	rows, err := ds.GetPredictions(run.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "S001", rows[0].ChecklistID)
	assert.True(t, rows[0].SpeciesObserved)
	require.NotNil(t, rows[0].ObservationCount)
	assert.Equal(t, 4, *rows[0].ObservationCount)
	assert.InDelta(t, 2.8, rows[0].PredictedAbundance, 1e-9)

	assert.Equal(t, "S002", rows[1].ChecklistID)
	assert.Nil(t, rows[1].ObservationCount)
	assert.False(t, rows[1].InRange)
}

func TestSaveRunRequiresID(t *testing.T) {
	ds := openStore(t)
	err := ds.SaveRun(&datastore.Run{}, nil)
	require.Error(t, err)
}

func TestRunsAreIsolated(t *testing.T) {
	ds := openStore(t)

	runA := &datastore.Run{RunID: datastore.NewRunID()}
	runB := &datastore.Run{RunID: datastore.NewRunID()}
	require.NoError(t, ds.SaveRun(runA, []hurdle.Prediction{{ID: "A1"}}))
	require.NoError(t, ds.SaveRun(runB, []hurdle.Prediction{{ID: "B1"}, {ID: "B2"}}))

	rows, err := ds.GetPredictions(runB.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B1", rows[0].ChecklistID)
}
