package config

import (
	"fmt"
	"os"

	"noctua/internal/core"

	"gopkg.in/yaml.v3"
)

// ShowCatalog is the set of show formats the compiler can be run with.
type ShowCatalog struct {
	Shows []core.Show `yaml:"shows"`
}

// LoadShows reads a YAML show catalog. An empty path yields the built-in default show.
func LoadShows(path string) (*ShowCatalog, error) {
	if path == "" {
		return &ShowCatalog{Shows: []core.Show{core.DefaultShow()}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read show catalog %s: %w", path, err)
	}
	return ParseShows(data)
}

// ParseShows decodes and validates a YAML show catalog.
func ParseShows(data []byte) (*ShowCatalog, error) {
	var catalog ShowCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse show catalog: %w", err)
	}
	if len(catalog.Shows) == 0 {
		return nil, fmt.Errorf("show catalog defines no shows")
	}

	ids := make(map[string]bool, len(catalog.Shows))
	for _, show := range catalog.Shows {
		if err := show.Validate(); err != nil {
			return nil, err
		}
		if ids[show.ID] {
			return nil, fmt.Errorf("duplicate show id %s", show.ID)
		}
		ids[show.ID] = true
	}
	return &catalog, nil
}

// Get returns the show with the given id.
func (c *ShowCatalog) Get(id string) (core.Show, error) {
	for _, show := range c.Shows {
		if show.ID == id {
			return show, nil
		}
	}
	return core.Show{}, fmt.Errorf("unknown show %q", id)
}
