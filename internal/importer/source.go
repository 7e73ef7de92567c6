package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

// Source loads statblocks from a format-specific source directory.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// Postcondition: returns every statblock found, each passing Validate, or a
// non-nil error.
type Source interface {
	Load(sourceDir string) ([]*statblock.StatBlock, error)
}

// YAMLSource reads *.yaml statblock files.
type YAMLSource struct{}

// Load reads every *.yaml file in sourceDir.
func (YAMLSource) Load(sourceDir string) ([]*statblock.StatBlock, error) {
	return statblock.LoadDir(sourceDir)
}

// JSONSource reads *.json actor exports in the document layout.
type JSONSource struct{}

// Load reads every *.json file in sourceDir in lexicographic order.
func (JSONSource) Load(sourceDir string) ([]*statblock.StatBlock, error) {
	paths, err := filepath.Glob(filepath.Join(sourceDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", sourceDir, err)
	}
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, fmt.Errorf("reading statblock dir %q: %w", sourceDir, err)
	}
	sort.Strings(paths)

	blocks := make([]*statblock.StatBlock, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		sb, err := document.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if sb.Type == "" {
			sb.Type = "npc"
		}
		if err := sb.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", p, err)
		}
		blocks = append(blocks, sb)
	}
	return blocks, nil
}

// SourceFor returns the Source for format, "yaml" or "json".
func SourceFor(format string) (Source, error) {
	switch format {
	case "yaml", "":
		return YAMLSource{}, nil
	case "json":
		return JSONSource{}, nil
	}
	return nil, fmt.Errorf("unknown source format %q", format)
}
