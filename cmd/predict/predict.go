// Package predict implements the prediction command.
package predict

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/dataset"
	"github.com/tphakala/ebird-abundance/internal/datastore"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/logging"
	"github.com/tphakala/ebird-abundance/internal/observation"
	"github.com/tphakala/ebird-abundance/internal/pipeline"
	"github.com/tphakala/ebird-abundance/internal/raster"
)

// Command creates the predict command, which fits the model and applies it
// to a prediction CSV, writing the prediction table and optionally an
// abundance surface and a SQLite run record.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		targetPath  string
		surfacePath string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict encounter rate and relative abundance",
		Long: `Fit the hurdle model on the training split, then predict for each
record of the target CSV. Without --target the held-out test split is
predicted. Writes predictions.csv to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(settings, targetPath, surfacePath)
		},
	}

	cmd.Flags().StringVar(&targetPath, "target", "", "CSV of records to predict, defaults to the test split")
	cmd.Flags().StringVar(&surfacePath, "surface", "", "Also write a gridded abundance surface CSV to this path")

	return cmd
}

func runPredict(settings *conf.Settings, targetPath, surfacePath string) error {
	artifacts, err := pipeline.Train(settings)
	if err != nil {
		return err
	}
	bundle := artifacts.Bundle

	targets := artifacts.Test
	if targetPath != "" {
		var err error
		targets, _, err = dataset.ReadChecklists(targetPath)
		if err != nil {
			return err
		}
	}

	preds, err := bundle.PredictAll(targets)
	if err != nil {
		return err
	}
	logging.Info("predictions computed", "records", len(preds), "threshold", bundle.Threshold())

	if settings.Output.Path != "" {
		if err := os.MkdirAll(settings.Output.Path, 0o755); err != nil {
			return err
		}
		path := filepath.Join(settings.Output.Path, "predictions.csv")
		if err := dataset.WritePredictions(path, preds); err != nil {
			return err
		}
		fmt.Println("predictions written to", path)
	}

	if surfacePath != "" {
		if err := writeSurface(surfacePath, targets, preds, settings.Sampling.CellSizeKm); err != nil {
			return err
		}
		fmt.Println("abundance surface written to", surfacePath)
	}

	if settings.Output.SQLite.Enabled {
		runID, err := saveRun(settings, bundle.Threshold(), artifacts.Schema.Fingerprint(), bundle.MasksOutOfRange(), preds)
		if err != nil {
			return err
		}
		fmt.Println("run saved as", runID)
	}

	return nil
}

func writeSurface(path string, records []observation.Record, preds []hurdle.Prediction, cellSizeKm float64) error {
	cells, err := raster.Surface(records, preds, cellSizeKm)
	if err != nil {
		return err
	}
	return raster.Write(path, cells)
}

func saveRun(settings *conf.Settings, threshold float64, fingerprint string, masked bool, preds []hurdle.Prediction) (string, error) {
	ds := datastore.New(settings.Output.SQLite.Path)
	if err := ds.Open(); err != nil {
		return "", err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logging.Warn("failed to close datastore", "error", err)
		}
	}()

	run := &datastore.Run{
		RunID:             datastore.NewRunID(),
		Species:           settings.Input.Species,
		Threshold:         threshold,
		SchemaFingerprint: fingerprint,
		MaskedOutOfRange:  masked,
	}
	if err := ds.SaveRun(run, preds); err != nil {
		return "", err
	}
	return run.RunID, nil
}
