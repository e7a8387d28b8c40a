package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("requires a source path", func(t *testing.T) {
		_, err := NewConfig(Config{})
		assert.ErrorContains(t, err, "SourcePath is a required configuration field")
	})

	t.Run("applies defaults", func(t *testing.T) {
		config, err := NewConfig(Config{SourcePath: "main.loom"})
		require.NoError(t, err)
		assert.Equal(t, ".", config.OutputDir)
		assert.Equal(t, 1, config.WorkerCount)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		config, err := NewConfig(Config{
			SourcePath:  "main.loom",
			OutputDir:   "build",
			WorkerCount: 8,
		})
		require.NoError(t, err)
		assert.Equal(t, "build", config.OutputDir)
		assert.Equal(t, 8, config.WorkerCount)
	})
}
