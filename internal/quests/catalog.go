package quests

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset describes one unlock-defining quest preset.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Repeatable  bool   `yaml:"repeatable"`
}

type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

// Catalog is the set of quest presets kits may reference. Unknown presets in
// kit requirements are skipped at connect time rather than tracked blindly.
type Catalog struct {
	presets map[string]Preset
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	c := &Catalog{presets: make(map[string]Preset, len(f.Presets))}
	for _, p := range f.Presets {
		name := strings.TrimSpace(strings.ToLower(p.Name))
		if name == "" {
			continue
		}
		p.Name = name
		c.presets[name] = p
	}
	return c, nil
}

// EmptyCatalog returns a catalog with no presets; every lookup misses.
func EmptyCatalog() *Catalog {
	return &Catalog{presets: make(map[string]Preset)}
}

func (c *Catalog) Get(name string) (Preset, bool) {
	p, ok := c.presets[strings.TrimSpace(strings.ToLower(name))]
	return p, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

func (c *Catalog) Len() int { return len(c.presets) }
