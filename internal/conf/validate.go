package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for values the pipeline cannot run with.
func ValidateSettings(settings *Settings) error {
	var validationErrors []string

	if settings.Sampling.CellSizeKm <= 0 {
		validationErrors = append(validationErrors,
			fmt.Sprintf("sampling.cellsizekm must be positive, got %g", settings.Sampling.CellSizeKm))
	}
	if settings.Sampling.TestFraction < 0 || settings.Sampling.TestFraction >= 1 {
		validationErrors = append(validationErrors,
			fmt.Sprintf("sampling.testfraction must be in [0, 1), got %g", settings.Sampling.TestFraction))
	}
	if settings.Model.Trees < 1 {
		validationErrors = append(validationErrors,
			fmt.Sprintf("model.trees must be at least 1, got %d", settings.Model.Trees))
	}
	if settings.Model.MinLeaf < 1 {
		validationErrors = append(validationErrors,
			fmt.Sprintf("model.minleaf must be at least 1, got %d", settings.Model.MinLeaf))
	}
	if settings.Model.MaxDepth < 0 {
		validationErrors = append(validationErrors,
			fmt.Sprintf("model.maxdepth must not be negative, got %d", settings.Model.MaxDepth))
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		validationErrors = append(validationErrors, "output.sqlite.path is required when output.sqlite.enabled is true")
	}

	if len(validationErrors) > 0 {
		errorMsg := "settings validation failed:"
		for _, e := range validationErrors {
			errorMsg += "\n- " + e
		}
		return errors.New(errorMsg)
	}

	return nil
}
