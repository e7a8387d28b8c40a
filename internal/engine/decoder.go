package engine

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/schema"
)

// DecodeSourceFile parses and decodes a single source file into a FileConfig
// struct. The parsed file is returned alongside so callers can slice clause
// source text out of its bytes.
func DecodeSourceFile(ctx context.Context, filePath string) (*schema.FileConfig, *hcl.File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding source file.", "path", filePath)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to parse source file %s: %s", filePath, diags.Error())
	}

	config, err := decodeFile(file, filePath)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("Successfully decoded source file.", "path", filePath, "modules_found", len(config.Modules))
	return config, file, nil
}

// DecodeSource parses and decodes source text held in memory. The filename is
// used for diagnostic ranges only.
func DecodeSource(src []byte, filename string) (*schema.FileConfig, *hcl.File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to parse source %s: %s", filename, diags.Error())
	}

	config, err := decodeFile(file, filename)
	if err != nil {
		return nil, nil, err
	}
	return config, file, nil
}

func decodeFile(file *hcl.File, name string) (*schema.FileConfig, error) {
	var config schema.FileConfig
	diags := gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode source file %s: %s", name, diags.Error())
	}
	return &config, nil
}
