// Package pipeline wires dataset intake, debiasing, and the hurdle fit
// into the end-to-end runs the CLI commands expose.
package pipeline

import (
	"log/slog"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/dataset"
	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/forest"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/logging"
	"github.com/tphakala/ebird-abundance/internal/observation"
	"github.com/tphakala/ebird-abundance/internal/sampling"
)

// Artifacts carries everything a finished training pass produced.
type Artifacts struct {
	Schema *observation.FeatureSchema
	Bundle *hurdle.Bundle

	// Debiased records by split
	Train []observation.Record
	Test  []observation.Record

	SampleStats sampling.Stats
}

func pipelineLogger() *slog.Logger {
	if l := logging.ForService("pipeline"); l != nil {
		return l
	}
	return slog.Default()
}

// Prepare loads the checklist table, zero-fills the target species when an
// observation file is configured, and assigns the train/test split to any
// record not yet labeled.
func Prepare(settings *conf.Settings) ([]observation.Record, *observation.FeatureSchema, error) {
	records, schema, err := dataset.ReadChecklists(settings.Input.ChecklistPath)
	if err != nil {
		return nil, nil, err
	}
	extent := observation.Extent(records)
	pipelineLogger().Info("checklists loaded",
		"path", settings.Input.ChecklistPath, "records", len(records), "covariates", schema.Len(),
		"west", extent.Min.Lon(), "south", extent.Min.Lat(),
		"east", extent.Max.Lon(), "north", extent.Max.Lat())

	if settings.Input.ObservationPath != "" {
		reports, err := dataset.ReadObservations(settings.Input.ObservationPath)
		if err != nil {
			return nil, nil, err
		}
		records, err = dataset.ZeroFill(records, reports)
		if err != nil {
			return nil, nil, err
		}
		pipelineLogger().Info("zero-filled species reports",
			"species", settings.Input.Species, "reports", len(reports))
	}

	unassigned := 0
	for i := range records {
		if records[i].Split == observation.SplitUnassigned {
			unassigned++
		}
	}
	switch {
	case unassigned == len(records):
		if err := dataset.SplitTrainTest(records, settings.Sampling.TestFraction, settings.Sampling.Seed); err != nil {
			return nil, nil, err
		}
	case unassigned > 0:
		return nil, nil, errors.InvalidInputError(
			"%d of %d records lack a split label; label all records or none", unassigned, len(records))
	}

	return records, schema, nil
}

// Debias runs the case-controlled grid sampler over all records; the split
// label is part of the stratum, so train and test are subsampled
// independently in one pass.
func Debias(settings *conf.Settings, records []observation.Record) ([]observation.Record, sampling.Stats, error) {
	sampler := sampling.NewGridSampler(settings.Sampling.CellSizeKm, settings.Sampling.Seed)
	return sampler.Sample(records)
}

// ForestConfig maps the model settings onto forest hyperparameters.
func ForestConfig(settings *conf.Settings) forest.Config {
	return forest.Config{
		Trees:              settings.Model.Trees,
		MinLeaf:            settings.Model.MinLeaf,
		MaxDepth:           settings.Model.MaxDepth,
		MTry:               settings.Model.MTryFactor,
		MaxSplitCandidates: settings.Model.MaxSplitTry,
		Seed:               settings.Sampling.Seed,
	}
}

// Train runs the full fitting pass: prepare, debias, and fit the hurdle
// estimator on the debiased training split.
func Train(settings *conf.Settings) (*Artifacts, error) {
	records, schema, err := Prepare(settings)
	if err != nil {
		return nil, err
	}

	debiased, stats, err := Debias(settings, records)
	if err != nil {
		return nil, err
	}

	train, test := dataset.BySplit(debiased)

	cfg := hurdle.Config{
		Forest:         ForestConfig(settings),
		MaskOutOfRange: settings.Hurdle.MaskOutOfRange,
	}
	bundle, err := hurdle.Fit(schema, cfg, train)
	if err != nil {
		return nil, err
	}

	pipelineLogger().Info("hurdle model trained",
		"train", len(train), "test", len(test),
		"threshold", bundle.Threshold(), "schema", schema.Fingerprint())

	return &Artifacts{
		Schema:      schema,
		Bundle:      bundle,
		Train:       train,
		Test:        test,
		SampleStats: stats,
	}, nil
}
