package pipeline_test

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/dataset"
	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/observation"
	"github.com/tphakala/ebird-abundance/internal/pipeline"
)

// writeChecklistFixture writes a synthetic checklist CSV where detection is
// driven by the effort covariate. Records are scattered one per grid cell
// so subsampling keeps nearly everything.
func writeChecklistFixture(t *testing.T, n int) string {
	t.Helper()

	schema, err := observation.NewFeatureSchema([]string{"effort", "elevation"})
	require.NoError(t, err)

	records := make([]observation.Record, n)
	for i := range records {
		effort := float64(i%10 + 1)
		detected := effort > 5
		rec := observation.Record{
			ID:        "S" + string(rune('A'+i%26)) + "-" + itoa(i),
			Position:  orb.Point{-76.0 + float64(i)*0.05, 40.0 + float64(i%40)*0.1},
			Year:      2023,
			DayOfYear: 1 + (i*7)%350,
			Detected:  detected,
			Covariates: map[string]float64{
				"effort":    effort,
				"elevation": float64(100 + i%5),
			},
		}
		if detected {
			count := 1 + int(effort)/3
			rec.Count = &count
		}
		records[i] = rec
	}

	path := filepath.Join(t.TempDir(), "checklists.csv")
	require.NoError(t, dataset.WriteChecklists(path, records, schema))
	return path
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func testSettings(path string) *conf.Settings {
	settings := &conf.Settings{}
	settings.Input.ChecklistPath = path
	settings.Input.Species = "woothr"
	settings.Sampling.CellSizeKm = 3.0
	settings.Sampling.Seed = 42
	settings.Sampling.TestFraction = 0.25
	settings.Model.Trees = 25
	settings.Model.MinLeaf = 2
	return settings
}

func TestTrainEndToEnd(t *testing.T) {
	path := writeChecklistFixture(t, 300)
	settings := testSettings(path)

	artifacts, err := pipeline.Train(settings)
	require.NoError(t, err)
	require.NotNil(t, artifacts.Bundle)

	assert.Equal(t, 300, artifacts.SampleStats.Input)
	assert.Equal(t, artifacts.SampleStats.Kept, len(artifacts.Train)+len(artifacts.Test))
	assert.NotEmpty(t, artifacts.Train)
	assert.NotEmpty(t, artifacts.Test)

	threshold := artifacts.Bundle.Threshold()
	assert.GreaterOrEqual(t, threshold, 0.0)
	assert.LessOrEqual(t, threshold, 1.0)

	preds, err := artifacts.Bundle.PredictAll(artifacts.Test)
	require.NoError(t, err)
	require.Len(t, preds, len(artifacts.Test))

	for i := range preds {
		assert.GreaterOrEqual(t, preds[i].EncounterP, 0.0)
		assert.LessOrEqual(t, preds[i].EncounterP, 1.0)
		assert.GreaterOrEqual(t, preds[i].Count, 0.0)
	}
}

func TestTrainLearnsEffortSignal(t *testing.T) {
	path := writeChecklistFixture(t, 300)
	settings := testSettings(path)

	artifacts, err := pipeline.Train(settings)
	require.NoError(t, err)

	high := observation.Record{
		ID: "hi", Position: orb.Point{-75, 41}, Year: 2023, DayOfYear: 100,
		Covariates: map[string]float64{"effort": 10, "elevation": 102},
	}
	low := high.Clone()
	low.ID = "lo"
	low.Covariates["effort"] = 1

	predHigh, err := artifacts.Bundle.Predict(&high)
	require.NoError(t, err)
	predLow, err := artifacts.Bundle.Predict(&low)
	require.NoError(t, err)

	assert.Greater(t, predHigh.EncounterP, predLow.EncounterP)
}

func TestPrepareRejectsPartialSplit(t *testing.T) {
	schema, err := observation.NewFeatureSchema([]string{"effort"})
	require.NoError(t, err)

	records := []observation.Record{
		{ID: "a", Position: orb.Point{-76, 42}, Year: 2023, DayOfYear: 10,
			Covariates: map[string]float64{"effort": 1}, Split: observation.SplitTrain},
		{ID: "b", Position: orb.Point{-76, 42.1}, Year: 2023, DayOfYear: 10,
			Covariates: map[string]float64{"effort": 2}},
	}
	path := filepath.Join(t.TempDir(), "partial.csv")
	require.NoError(t, dataset.WriteChecklists(path, records, schema))

	settings := testSettings(path)
	_, _, err = pipeline.Prepare(settings)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestPrepareKeepsExistingSplit(t *testing.T) {
	schema, err := observation.NewFeatureSchema([]string{"effort"})
	require.NoError(t, err)

	records := []observation.Record{
		{ID: "a", Position: orb.Point{-76, 42}, Year: 2023, DayOfYear: 10,
			Covariates: map[string]float64{"effort": 1}, Split: observation.SplitTrain},
		{ID: "b", Position: orb.Point{-76, 42.1}, Year: 2023, DayOfYear: 10,
			Covariates: map[string]float64{"effort": 2}, Split: observation.SplitTest},
	}
	path := filepath.Join(t.TempDir(), "labeled.csv")
	require.NoError(t, dataset.WriteChecklists(path, records, schema))

	settings := testSettings(path)
	loaded, _, err := pipeline.Prepare(settings)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, observation.SplitTrain, loaded[0].Split)
	assert.Equal(t, observation.SplitTest, loaded[1].Split)
}
