package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/loom/internal/testutil"
	"github.com/vk/loom/modules/tracker"
)

func TestTrackerHooks(t *testing.T) {
	h := testutil.NewHarness(t, &tracker.Module{})
	result := h.MustCompileOne(t, `
module "m" {
  attr "on_definition" {
    value = ["tracker", "on_definition"]
  }
  attr "before_compile" {
    value = ["tracker", "before_compile"]
  }
  attr "after_compile" {
    value = ["tracker", "after_compile"]
  }
  def "def" "add" {
    params = ["a", "b"]
    body   = a + b
  }
}
`)
	require.NotEmpty(t, result.Binary)

	log := h.Log.String()
	assert.Contains(t, log, "Definition recorded.")
	assert.Contains(t, log, "name=add")
	assert.Contains(t, log, "Module about to be compiled.")
	assert.Contains(t, log, "Module compiled.")
}
