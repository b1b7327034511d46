package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/tmdbg/internal/ir"
)

// CUEExt is the extension that selects the CUE format.
const CUEExt = ".cue"

// Load reads the description at path. Files ending in CUEExt are parsed as
// CUE, everything else as text.
func Load(path string) (ir.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Description{Source: path}, &LoadError{Kind: FileRead, Path: path, Err: err}
	}
	if strings.EqualFold(filepath.Ext(path), CUEExt) {
		return ParseCUE(data, path)
	}
	return ParseText(bytes.NewReader(data), path)
}
