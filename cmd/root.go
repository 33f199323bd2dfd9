package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ebird-abundance/cmd/evaluate"
	"github.com/tphakala/ebird-abundance/cmd/predict"
	"github.com/tphakala/ebird-abundance/cmd/subsample"
	"github.com/tphakala/ebird-abundance/cmd/train"
	"github.com/tphakala/ebird-abundance/internal/conf"
	"github.com/tphakala/ebird-abundance/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ebird-abundance",
		Short: "Relative abundance estimation for eBird checklist data",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		subsample.Command(settings),
		train.Command(settings),
		predict.Command(settings),
		evaluate.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Input.ChecklistPath, "input", "i", viper.GetString("input.checklistpath"), "Path to the zero-filled checklist CSV")
	rootCmd.PersistentFlags().StringVar(&settings.Input.Species, "species", viper.GetString("input.species"), "Species code the run is fitted for")
	rootCmd.PersistentFlags().Float64Var(&settings.Sampling.CellSizeKm, "cellsize", viper.GetFloat64("sampling.cellsizekm"), "Subsampling grid cell size in kilometers")
	rootCmd.PersistentFlags().Uint64Var(&settings.Sampling.Seed, "seed", viper.GetUint64("sampling.seed"), "RNG seed for subsampling, splitting and model fitting")
	rootCmd.PersistentFlags().IntVar(&settings.Model.Trees, "trees", viper.GetInt("model.trees"), "Number of trees per random forest")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Path to output directory")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		// Flag values still apply through the VarP bindings; only the
		// viper-side override chain is degraded.
		logging.Warn("error binding command line flags", "error", err)
	}
}
