// Package subsample implements the case-controlled grid subsampling command.
package subsample

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/dataset"
	"github.com/tphakala/ebird-abundance/internal/logging"
	"github.com/tphakala/ebird-abundance/internal/pipeline"
)

// Command creates the subsample command, which debiases a checklist CSV
// and writes the retained records back out.
func Command(settings *conf.Settings) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "subsample [input.csv]",
		Short: "Spatiotemporally subsample a checklist CSV",
		Long: `Apply case-controlled grid subsampling to a zero-filled checklist CSV,
keeping one detection and one non-detection per grid cell and week, and
write the retained records to a new CSV.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Input.ChecklistPath = args[0]
			}
			return runSubsample(settings, outputPath)
		},
	}

	cmd.Flags().StringVar(&outputPath, "out", "subsampled.csv", "Path to write the subsampled CSV to")

	return cmd
}

func runSubsample(settings *conf.Settings, outputPath string) error {
	records, schema, err := pipeline.Prepare(settings)
	if err != nil {
		return err
	}

	kept, stats, err := pipeline.Debias(settings, records)
	if err != nil {
		return err
	}

	logging.Info("subsampling finished",
		"input", stats.Input,
		"dropped", stats.Dropped,
		"strata", stats.Strata,
		"kept", stats.Kept,
		"cell_size_km", settings.Sampling.CellSizeKm)

	return dataset.WriteChecklists(outputPath, kept, schema)
}
