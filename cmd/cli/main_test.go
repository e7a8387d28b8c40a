package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/loom/internal/cli"
	"github.com/vk/loom/internal/testutil"
)

func TestRunNoArgsPrintsUsage(t *testing.T) {
	out := &testutil.SafeBuffer{}
	require.NoError(t, run(out, nil))
	assert.Contains(t, out.String(), "loomc - The loom module compiler.")
}

func TestRunInvalidFlag(t *testing.T) {
	out := &testutil.SafeBuffer{}
	err := run(out, []string{"-log-format", "xml", "main.loom"})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunCompilesSource(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	source := `
module "m" {
  def "def" "one" {
    body = 1
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "m.loom"), []byte(source), 0o644))

	out := &testutil.SafeBuffer{}
	err := run(out, []string{"-src", srcDir, "-out", outDir, "-log-level", "error"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "m.lmb"))
	assert.NoError(t, err)
}
