package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Sampling = Sampling{CellSizeKm: 3.0, Seed: 1, TestFraction: 0.2}
	s.Model = Model{Trees: 100, MinLeaf: 5}
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Run("valid settings pass", func(t *testing.T) {
		require.NoError(t, ValidateSettings(validSettings()))
	})

	t.Run("zero cell size rejected", func(t *testing.T) {
		s := validSettings()
		s.Sampling.CellSizeKm = 0
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cellsizekm")
	})

	t.Run("test fraction of one rejected", func(t *testing.T) {
		s := validSettings()
		s.Sampling.TestFraction = 1.0
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("sqlite enabled without path rejected", func(t *testing.T) {
		s := validSettings()
		s.Output.SQLite.Enabled = true
		s.Output.SQLite.Path = ""
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("multiple problems reported together", func(t *testing.T) {
		s := validSettings()
		s.Model.Trees = 0
		s.Model.MinLeaf = 0
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model.trees")
		assert.Contains(t, err.Error(), "model.minleaf")
	})
}

func TestDefaultConfigYAML(t *testing.T) {
	out := defaultConfigYAML()
	assert.Contains(t, out, "cellsizekm: 3")
	assert.Contains(t, out, "trees: 500")
}
