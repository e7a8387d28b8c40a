package engine

import (
	"context"
	"fmt"

	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/fsutil"
	"github.com/vk/loom/internal/model"
)

// LoadModules finds, parses, and translates every source file under the given
// path into a flat list of top-level modules, in file order.
func LoadModules(ctx context.Context, sourcePath string) ([]*model.Module, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("LoadModules started.", "path", sourcePath)

	sourceFiles, err := fsutil.ResolveSourcePath(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path '%s': %w", sourcePath, err)
	}

	if len(sourceFiles) == 0 {
		logger.Warn("No source files found at the specified path.", "path", sourcePath)
		return nil, nil
	}

	logger.Info("Found source files to compile.", "count", len(sourceFiles), "path", sourcePath)

	var modules []*model.Module
	for _, file := range sourceFiles {
		config, parsed, err := DecodeSourceFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load source file '%s': %w", file, err)
		}
		for _, block := range config.Modules {
			mod, err := TranslateModule(block, parsed)
			if err != nil {
				return nil, fmt.Errorf("failed to translate source file '%s': %w", file, err)
			}
			modules = append(modules, mod)
		}
	}

	logger.Debug("Finished loading source files.", "total_modules", len(modules))
	return modules, nil
}
