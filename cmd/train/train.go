// Package train implements the model fitting command.
package train

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/pipeline"
)

// Command creates the train command, which fits the full hurdle model and
// reports the selected threshold and feature importances.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the encounter and count models",
		Long: `Load checklists, assign the train/test split, subsample, and fit the
two-stage hurdle model on the training split. Prints a fit summary and
writes ranked feature importances to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(settings)
		},
	}

	return cmd
}

func runTrain(settings *conf.Settings) error {
	artifacts, err := pipeline.Train(settings)
	if err != nil {
		return err
	}
	bundle := artifacts.Bundle

	fmt.Printf("species:          %s\n", settings.Input.Species)
	fmt.Printf("schema:           %s (%d covariates)\n", artifacts.Schema.Fingerprint(), artifacts.Schema.Len())
	fmt.Printf("records kept:     %d of %d (train %d, test %d)\n",
		artifacts.SampleStats.Kept, artifacts.SampleStats.Input, len(artifacts.Train), len(artifacts.Test))
	fmt.Printf("range threshold:  %.4f\n", bundle.Threshold())
	fmt.Printf("masks out of range: %v\n", bundle.MasksOutOfRange())

	encounterNames := artifacts.Schema.Names()
	countNames := append(append([]string{}, encounterNames...), hurdle.EncounterProbFeature)

	if settings.Output.Path != "" {
		if err := os.MkdirAll(settings.Output.Path, 0o755); err != nil {
			return err
		}
		path := filepath.Join(settings.Output.Path, "importance.csv")
		if err := writeImportances(path, bundle, encounterNames, countNames); err != nil {
			return err
		}
		fmt.Printf("importances:      %s\n", path)
	}

	printTopImportances("encounter model", encounterNames, bundle.EncounterImportance())
	printTopImportances("count model", countNames, bundle.CountImportance())

	return nil
}

type rankedFeature struct {
	name  string
	score float64
}

func ranked(names []string, scores []float64) []rankedFeature {
	out := make([]rankedFeature, len(names))
	for i := range names {
		out[i] = rankedFeature{name: names[i], score: scores[i]}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].score > out[b].score })
	return out
}

func printTopImportances(label string, names []string, scores []float64) {
	fmt.Printf("\n%s, top predictors:\n", label)
	features := ranked(names, scores)
	for i, f := range features {
		if i >= 10 {
			break
		}
		fmt.Printf("  %-24s %.4f\n", f.name, f.score)
	}
}

func writeImportances(path string, bundle *hurdle.Bundle, encounterNames, countNames []string) error {
	var sb strings.Builder
	sb.WriteString("model,feature,importance\n")
	for _, f := range ranked(encounterNames, bundle.EncounterImportance()) {
		fmt.Fprintf(&sb, "encounter,%s,%g\n", f.name, f.score)
	}
	for _, f := range ranked(countNames, bundle.CountImportance()) {
		fmt.Fprintf(&sb, "count,%s,%g\n", f.name, f.score)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
