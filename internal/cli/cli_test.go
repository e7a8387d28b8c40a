package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourcePath(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "long flag", args: []string{"-src", "main.loom"}},
		{name: "short flag", args: []string{"-s", "main.loom"}},
		{name: "positional argument", args: []string{"main.loom"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			config, shouldExit, err := Parse(tc.args, &buf)
			require.NoError(t, err)
			require.False(t, shouldExit)
			assert.Equal(t, "main.loom", config.SourcePath)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	var buf bytes.Buffer
	config, shouldExit, err := Parse([]string{"main.loom"}, &buf)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, ".", config.OutputDir)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 4, config.WorkerCount)
	assert.True(t, config.Docs)
	assert.False(t, config.IgnoreModuleConflict)
}

func TestParseOverrides(t *testing.T) {
	var buf bytes.Buffer
	config, shouldExit, err := Parse([]string{
		"-out", "build",
		"-log-format", "TEXT",
		"-log-level", "Debug",
		"-workers", "2",
		"-docs=false",
		"-ignore-module-conflict",
		"main.loom",
	}, &buf)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "build", config.OutputDir)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, 2, config.WorkerCount)
	assert.False(t, config.Docs)
	assert.True(t, config.IgnoreModuleConflict)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	config, shouldExit, err := Parse(nil, &buf)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.Contains(t, buf.String(), "loomc - The loom module compiler.")
}

func TestParseHelpFlag(t *testing.T) {
	var buf bytes.Buffer
	config, shouldExit, err := Parse([]string{"-h"}, &buf)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
}

func TestParseValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		message string
	}{
		{
			name:    "unknown flag",
			args:    []string{"-bogus", "main.loom"},
			message: "flag provided but not defined",
		},
		{
			name:    "invalid log format",
			args:    []string{"-log-format", "xml", "main.loom"},
			message: "invalid log-format",
		},
		{
			name:    "invalid log level",
			args:    []string{"-log-level", "verbose", "main.loom"},
			message: "invalid log-level",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, _, err := Parse(tc.args, &buf)
			require.Error(t, err)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.message)
		})
	}
}
