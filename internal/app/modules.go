package app

import (
	"github.com/vk/loom/internal/handlers"
	"github.com/vk/loom/modules/tracker"
)

// coreModules is the definitive list of all handler modules that are
// compiled into the loomc binary.
var coreModules = []handlers.Module{
	&tracker.Module{},
}
