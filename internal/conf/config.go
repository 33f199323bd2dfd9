// Package conf loads and validates pipeline settings from config.yaml.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Settings contains all runtime configuration for the pipeline
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug level logging

	Main struct {
		Name string `yaml:"name"` // node name, used to identify the run source
		Log  struct {
			Enabled bool   `yaml:"enabled"` // true to enable file logging
			Path    string `yaml:"path"`    // path to log file
		} `yaml:"log"`
	} `yaml:"main"`

	Input struct {
		ChecklistPath   string `yaml:"checklistpath"`   // CSV of zero-filled checklist records
		ObservationPath string `yaml:"observationpath"` // optional CSV of raw species observations for zero-filling
		Species         string `yaml:"species"`         // species code the observation file is filtered to
	} `yaml:"input"`

	Sampling Sampling `yaml:"sampling"`
	Model    Model    `yaml:"model"`
	Hurdle   Hurdle   `yaml:"hurdle"`

	Output struct {
		Path   string `yaml:"path"` // directory for CSV outputs
		SQLite struct {
			Enabled bool   `yaml:"enabled"` // true to persist prediction tables
			Path    string `yaml:"path"`    // path to sqlite database
		} `yaml:"sqlite"`
	} `yaml:"output"`
}

// Sampling holds the spatiotemporal subsampling parameters
type Sampling struct {
	CellSizeKm   float64 `yaml:"cellsizekm"`   // equal-area grid cell size in kilometers
	Seed         uint64  `yaml:"seed"`         // RNG seed for subsampling and the train/test split
	TestFraction float64 `yaml:"testfraction"` // fraction of checklists held out for evaluation
}

// Model holds the random forest hyperparameters
type Model struct {
	Trees       int `yaml:"trees"`       // number of trees per forest
	MinLeaf     int `yaml:"minleaf"`     // minimum records per leaf
	MaxDepth    int `yaml:"maxdepth"`    // maximum tree depth, 0 for unlimited
	MTryFactor  int `yaml:"mtryfactor"`  // 0 for default (sqrt(p) classification, p/3 regression)
	MaxSplitTry int `yaml:"maxsplittry"` // candidate split points evaluated per feature, 0 for all
}

// Hurdle holds estimator-level options
type Hurdle struct {
	MaskOutOfRange bool `yaml:"maskoutofrange"` // zero predicted abundance outside the estimated range
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the current settings instance, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigYAML()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the config search paths: working directory first,
// then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// No home directory (containers, CI); working directory alone is fine
		return paths, nil
	}

	return append(paths, filepath.Join(userConfigDir, "ebird-abundance")), nil
}
