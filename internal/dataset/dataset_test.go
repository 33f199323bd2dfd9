package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/dataset"
	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

const checklistCSV = `checklist_id,latitude,longitude,year,day_of_year,species_observed,observation_count,effort_hrs,effort_km
S001,42.44,-76.45,2022,120,true,3,1.5,2.0
S002,42.46,-76.50,2022,121,false,,0.5,0.0
S003,42.48,-76.40,2022,122,true,X,2.0,3.1
S004,42.50,-76.42,2022,123,false,,1.0,1.2
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadChecklists(t *testing.T) {
	path := writeTemp(t, "checklists.csv", checklistCSV)

	records, schema, err := dataset.ReadChecklists(path)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"effort_hrs", "effort_km"}, schema.Names())

	r := records[0]
	assert.Equal(t, "S001", r.ID)
	assert.InDelta(t, 42.44, r.Position.Lat(), 1e-9)
	assert.InDelta(t, -76.45, r.Position.Lon(), 1e-9)
	assert.True(t, r.Detected)
	require.NotNil(t, r.Count)
	assert.Equal(t, 3, *r.Count)
	assert.InDelta(t, 1.5, r.Covariates["effort_hrs"], 1e-9)

	// Presence-only detection keeps the flag but no count
	assert.True(t, records[2].Detected)
	assert.Nil(t, records[2].Count)

	assert.False(t, records[1].Detected)
	assert.Nil(t, records[1].Count)
}

func TestReadChecklistsErrors(t *testing.T) {
	t.Run("missing required column", func(t *testing.T) {
		path := writeTemp(t, "bad.csv", "checklist_id,latitude\nS001,42.0\n")
		_, _, err := dataset.ReadChecklists(path)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	})

	t.Run("non-numeric covariate", func(t *testing.T) {
		csv := "checklist_id,latitude,longitude,year,day_of_year,species_observed,habitat\nS001,42.0,-76.0,2022,10,true,forest\n"
		path := writeTemp(t, "bad2.csv", csv)
		_, _, err := dataset.ReadChecklists(path)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := dataset.ReadChecklists(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	})
}

func TestZeroFill(t *testing.T) {
	checklists := []observation.Record{
		{ID: "S001"}, {ID: "S002"}, {ID: "S003"},
	}
	count := 5
	reports := []dataset.SpeciesObservation{
		{ChecklistID: "S001", Count: &count},
		{ChecklistID: "S003"}, // presence-only
	}

	out, err := dataset.ZeroFill(checklists, reports)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].Detected)
	require.NotNil(t, out[0].Count)
	assert.Equal(t, 5, *out[0].Count)

	assert.False(t, out[1].Detected)
	assert.Nil(t, out[1].Count)

	assert.True(t, out[2].Detected)
	assert.Nil(t, out[2].Count)

	// Input untouched
	assert.False(t, checklists[0].Detected)

	t.Run("orphan report rejected", func(t *testing.T) {
		_, err := dataset.ZeroFill(checklists, []dataset.SpeciesObservation{{ChecklistID: "S999"}})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestSplitTrainTest(t *testing.T) {
	build := func() []observation.Record {
		records := make([]observation.Record, 1000)
		for i := range records {
			records[i].ID = "S" + string(rune('0'+i%10))
		}
		return records
	}

	t.Run("roughly honors the fraction", func(t *testing.T) {
		records := build()
		require.NoError(t, dataset.SplitTrainTest(records, 0.2, 42))
		_, test := dataset.BySplit(records)
		assert.InDelta(t, 200, len(test), 50)
	})

	t.Run("deterministic under seed", func(t *testing.T) {
		a, b := build(), build()
		require.NoError(t, dataset.SplitTrainTest(a, 0.2, 7))
		require.NoError(t, dataset.SplitTrainTest(b, 0.2, 7))
		for i := range a {
			assert.Equal(t, a[i].Split, b[i].Split)
		}
	})

	t.Run("never reassigns", func(t *testing.T) {
		records := build()
		require.NoError(t, dataset.SplitTrainTest(records, 0.2, 1))
		err := dataset.SplitTrainTest(records, 0.2, 2)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("bad fraction", func(t *testing.T) {
		assert.Error(t, dataset.SplitTrainTest(build(), 1.0, 1))
	})
}

func TestChecklistRoundTrip(t *testing.T) {
	path := writeTemp(t, "in.csv", checklistCSV)
	records, schema, err := dataset.ReadChecklists(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, dataset.WriteChecklists(out, records, schema))

	back, backSchema, err := dataset.ReadChecklists(out)
	require.NoError(t, err)
	require.Len(t, back, len(records))
	assert.True(t, schema.Equal(backSchema))

	for i := range records {
		assert.Equal(t, records[i].ID, back[i].ID)
		assert.Equal(t, records[i].Detected, back[i].Detected)
		assert.Equal(t, records[i].Count == nil, back[i].Count == nil)
	}
}
