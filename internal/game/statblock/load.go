package statblock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromBytes parses a single statblock from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single StatBlock.
// Postcondition: Returns a validated *StatBlock, or an error.
func LoadFromBytes(data []byte) (*StatBlock, error) {
	var sb StatBlock
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("parsing statblock YAML: %w", err)
	}
	if sb.Type == "" {
		sb.Type = "npc"
	}
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	return &sb, nil
}

// LoadFile reads and parses the statblock at path.
func LoadFile(path string) (*StatBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	sb, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return sb, nil
}

// LoadDir reads all *.yaml files in dir and returns the parsed statblocks in
// directory order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all statblocks or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadDir(dir string) ([]*StatBlock, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading statblock dir %q: %w", dir, err)
	}

	var blocks []*StatBlock
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		sb, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, sb)
	}
	return blocks, nil
}

// EncodeYAML renders s as YAML.
func (s *StatBlock) EncodeYAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding statblock %q: %w", s.Name, err)
	}
	return out, nil
}
