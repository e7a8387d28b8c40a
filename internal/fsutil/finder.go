// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourceExtension is the file extension of compilable source files.
const SourceExtension = ".loom"

// ResolveSourcePath takes a path and returns every source file it names.
// A file path is returned as-is after an extension check; a directory is
// searched recursively.
func ResolveSourcePath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("source path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		return findSourceFiles(path)
	}

	if filepath.Ext(path) != SourceExtension {
		return nil, fmt.Errorf("specified file is not a %s file: %s", SourceExtension, path)
	}
	return []string{path}, nil
}

// findSourceFiles scans a directory recursively for source files.
func findSourceFiles(rootDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), SourceExtension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
