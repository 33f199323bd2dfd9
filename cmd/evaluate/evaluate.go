// Package evaluate implements the held-out evaluation command.
package evaluate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/pipeline"
)

// Command creates the evaluate command, which fits the model and reports
// its performance on the held-out test split.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the fitted model on the test split",
		Long: `Fit the hurdle model on the training split, predict the held-out test
split, and print encounter, count, and abundance metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(settings)
		},
	}

	return cmd
}

func runEvaluate(settings *conf.Settings) error {
	artifacts, err := pipeline.Train(settings)
	if err != nil {
		return err
	}

	preds, err := artifacts.Bundle.PredictAll(artifacts.Test)
	if err != nil {
		return err
	}

	report := hurdle.Evaluate(artifacts.Bundle.Threshold(), preds)
	printReport(settings.Input.Species, &report)
	return nil
}

func printReport(species string, r *hurdle.Report) {
	fmt.Printf("species:              %s\n", species)
	fmt.Printf("test records:         %d\n", r.N)
	fmt.Printf("range threshold:      %.4f\n", r.Threshold)
	fmt.Println()
	fmt.Printf("encounter MSE:        %.4f\n", r.EncounterMSE)
	fmt.Printf("encounter Spearman:   %.4f\n", r.EncounterSpearman)
	fmt.Printf("sensitivity:          %.4f\n", r.Sensitivity)
	fmt.Printf("specificity:          %.4f\n", r.Specificity)
	fmt.Printf("kappa:                %.4f\n", r.Kappa)
	fmt.Printf("MCC:                  %.4f\n", r.MCC)
	fmt.Printf("F1:                   %.4f\n", r.F1)
	fmt.Printf("PR AUC:               %.4f\n", r.PRAUC)
	fmt.Println()
	fmt.Printf("count Spearman:       %.4f\n", r.CountSpearman)
	fmt.Printf("count log Pearson:    %.4f\n", r.CountLogPearson)
	fmt.Printf("abundance Spearman:   %.4f\n", r.AbundanceSpearman)
	fmt.Printf("abundance log Pearson: %.4f\n", r.AbundanceLogPearson)
}
