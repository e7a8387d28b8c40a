// Package testutil provides shared helpers for compiler tests: a thread-safe
// log buffer and an in-memory compilation harness.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/compile"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/engine"
	"github.com/vk/loom/internal/handlers"
	"github.com/vk/loom/internal/localeval"
	"github.com/vk/loom/internal/model"
	"github.com/vk/loom/internal/registry"
	"github.com/vk/loom/internal/session"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Harness wires a full compiler around an in-memory handler registry so tests
// can compile source text without touching the file system.
type Harness struct {
	Compiler *compile.Compiler
	Handlers *handlers.Handlers
	Session  *session.Registry
	Ctx      context.Context
	Log      *SafeBuffer
}

// NewHarness builds a compilation harness with default options. The provided
// handler modules are registered before the compiler is assembled.
func NewHarness(t *testing.T, modules ...handlers.Module) *Harness {
	t.Helper()
	return NewHarnessWithOptions(t, compile.Options{Docs: true}, modules...)
}

// NewHarnessWithOptions builds a compilation harness with explicit compiler
// options.
func NewHarnessWithOptions(t *testing.T, opts compile.Options, modules ...handlers.Module) *Harness {
	t.Helper()

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	h := handlers.New()
	for _, mod := range modules {
		mod.Register(h)
	}

	eval := localeval.New(h)
	sess := session.NewRegistry()
	reg := registry.New(sess)

	return &Harness{
		Compiler: compile.New(reg, sess, eval, eval, sess, opts),
		Handlers: h,
		Session:  sess,
		Ctx:      ctx,
		Log:      logBuffer,
	}
}

// CompileResult holds the outcome of compiling one module.
type CompileResult struct {
	Module *model.Module
	Value  cty.Value
	Binary []byte
	Err    error
}

// ParseModules decodes source text into translated modules, failing the test
// on parse errors.
func ParseModules(t *testing.T, source string) []*model.Module {
	t.Helper()

	config, file, err := engine.DecodeSource([]byte(source), t.Name()+".loom")
	require.NoError(t, err)
	require.NotEmpty(t, config.Modules, "source defines no modules")

	out := make([]*model.Module, 0, len(config.Modules))
	for _, block := range config.Modules {
		mod, err := engine.TranslateModule(block, file)
		require.NoError(t, err)
		out = append(out, mod)
	}
	return out
}

// CompileSource parses the source text and compiles every top-level module in
// order. Compilation stops at the first failure; the failing module's result
// carries the error.
func (h *Harness) CompileSource(t *testing.T, source string) []*CompileResult {
	t.Helper()

	var results []*CompileResult
	for _, mod := range ParseModules(t, source) {
		value, binary, err := h.Compiler.CompileModule(h.Ctx, mod, model.NewEnv(nil))
		results = append(results, &CompileResult{Module: mod, Value: value, Binary: binary, Err: err})
		if err != nil {
			break
		}
	}
	return results
}

// MustCompileOne compiles source text expected to hold exactly one module and
// requires the compilation to succeed.
func (h *Harness) MustCompileOne(t *testing.T, source string) *CompileResult {
	t.Helper()

	results := h.CompileSource(t, source)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	return results[0]
}
