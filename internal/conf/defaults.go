// conf/defaults.go default values for settings
package conf

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "ebird-abundance")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/abundance.log")

	viper.SetDefault("input.checklistpath", "data/checklists.csv")
	viper.SetDefault("input.observationpath", "")
	viper.SetDefault("input.species", "")

	viper.SetDefault("sampling.cellsizekm", 3.0)
	viper.SetDefault("sampling.seed", 1)
	viper.SetDefault("sampling.testfraction", 0.2)

	viper.SetDefault("model.trees", 500)
	viper.SetDefault("model.minleaf", 5)
	viper.SetDefault("model.maxdepth", 0)
	viper.SetDefault("model.mtryfactor", 0)
	viper.SetDefault("model.maxsplittry", 32)

	viper.SetDefault("hurdle.maskoutofrange", false)

	viper.SetDefault("output.path", "output/")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "predictions.db")
}

// defaultConfigYAML renders the default settings as a commented starting config.
func defaultConfigYAML() string {
	settings := &Settings{}
	settings.Debug = false
	settings.Main.Name = "ebird-abundance"
	settings.Main.Log.Enabled = true
	settings.Main.Log.Path = "logs/abundance.log"
	settings.Input.ChecklistPath = "data/checklists.csv"
	settings.Sampling = Sampling{CellSizeKm: 3.0, Seed: 1, TestFraction: 0.2}
	settings.Model = Model{Trees: 500, MinLeaf: 5, MaxSplitTry: 32}
	settings.Output.Path = "output/"
	settings.Output.SQLite.Path = "predictions.db"

	out, err := yaml.Marshal(settings)
	if err != nil {
		// Marshal of a plain struct cannot realistically fail; keep the file usable anyway
		return "# ebird-abundance configuration\n"
	}
	return fmt.Sprintf("# ebird-abundance configuration\n%s", out)
}
