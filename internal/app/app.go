package app

import (
	"io"
	"log/slog"

	"github.com/vk/loom/internal/compile"
	"github.com/vk/loom/internal/handlers"
	"github.com/vk/loom/internal/localeval"
	"github.com/vk/loom/internal/registry"
	"github.com/vk/loom/internal/session"
)

// App encapsulates the compiler's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	handlers *handlers.Handlers
	session  *session.Registry
	compiler *compile.Compiler
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, handler
// registry, and code session.
func NewApp(outW io.Writer, config *Config, modules ...handlers.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	h := handlers.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(h)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "handlers", h.Len())

	eval := localeval.New(h)
	sess := session.NewRegistry()
	reg := registry.New(sess)

	compiler := compile.New(reg, sess, eval, eval, sess, compile.Options{
		Docs:                 config.Docs,
		IgnoreModuleConflict: config.IgnoreModuleConflict,
	})
	logger.Debug("Compiler assembled.")

	return &App{
		outW:     outW,
		logger:   logger,
		handlers: h,
		session:  sess,
		compiler: compiler,
		config:   config,
	}
}

// Compiler returns the application's compiler. This is primarily for testing.
func (a *App) Compiler() *compile.Compiler {
	return a.compiler
}

// Session returns the application's code session. This is primarily for
// testing.
func (a *App) Session() *session.Registry {
	return a.session
}
