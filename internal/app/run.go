package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/engine"
	"github.com/vk/loom/internal/model"
)

// artifactExtension is the file extension of compiled module binaries.
const artifactExtension = ".lmb"

// Run executes the main compilation logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	modules, err := engine.LoadModules(ctx, a.config.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(modules) == 0 {
		a.logger.Warn("No modules found, compilation not required.")
		return nil
	}

	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	a.logger.Info("🚀 Starting concurrent compilation...", "modules", len(modules), "workers", a.config.WorkerCount)

	jobs := make(chan *model.Module)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for i := 0; i < a.config.WorkerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for mod := range jobs {
				a.logger.Debug("Worker picked up module.", "workerID", workerID, "module", mod.Name)
				if err := a.compileOne(ctx, mod); err != nil {
					a.logger.Error("Module compilation failed.", "module", mod.Name, "error", err)
					mu.Lock()
					failures = append(failures, fmt.Errorf("module %s: %w", mod.Name, err))
					mu.Unlock()
					continue
				}
				a.logger.Debug("Module compilation succeeded.", "workerID", workerID, "module", mod.Name)
			}
		}(i)
	}

	for _, mod := range modules {
		jobs <- mod
	}
	close(jobs)
	wg.Wait()

	a.reportWarnings()

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	a.logger.Info("🏁 Compilation finished.", "modules", len(modules))
	return nil
}

// compileOne compiles a single top-level module and writes its artifact to
// the output directory.
func (a *App) compileOne(ctx context.Context, mod *model.Module) error {
	_, binary, err := a.compiler.CompileModule(ctx, mod, model.NewEnv(nil))
	if err != nil {
		return err
	}

	outPath := filepath.Join(a.config.OutputDir, mod.Name+artifactExtension)
	if err := os.WriteFile(outPath, binary, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	a.logger.Info("Artifact written.", "module", mod.Name, "path", outPath, "bytes", len(binary))
	return nil
}

// reportWarnings prints accumulated compiler warnings to the output stream.
func (a *App) reportWarnings() {
	warnings := a.compiler.Warnings().All()
	for _, w := range warnings {
		var loc string
		if w.Subject.Filename != "" {
			loc = " at " + w.Subject.String()
		}
		fmt.Fprintf(a.outW, "warning: %s%s\n", strings.TrimSpace(w.Message), loc)
	}
}
