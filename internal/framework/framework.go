// Package framework holds the catalogue of principle frameworks a user can
// assess themselves against.
package framework

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed frameworks.yaml
var defaultCatalogYAML []byte

type Principle struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

type Framework struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Icon        string      `yaml:"icon" json:"icon"`
	Principles  []Principle `yaml:"principles" json:"principles"`
}

// PrincipleNames returns the principles in display order. The order is also
// the categorizer's tie-break order.
func (f Framework) PrincipleNames() []string {
	names := make([]string, len(f.Principles))
	for i, p := range f.Principles {
		names[i] = p.Name
	}
	return names
}

// Colors maps principle name to its hub colour.
func (f Framework) Colors() map[string]string {
	colors := make(map[string]string, len(f.Principles))
	for _, p := range f.Principles {
		colors[p.Name] = p.Color
	}
	return colors
}

type Catalog struct {
	Default    string      `yaml:"default"`
	Frameworks []Framework `yaml:"frameworks"`

	byID map[string]int
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse frameworks: %w", err)
	}
	c.byID = make(map[string]int, len(c.Frameworks))
	for i, f := range c.Frameworks {
		if f.ID == "" {
			return nil, fmt.Errorf("framework %d has no id", i)
		}
		if len(f.Principles) == 0 {
			return nil, fmt.Errorf("framework %q has no principles", f.ID)
		}
		c.byID[f.ID] = i
	}
	if _, ok := c.byID[c.Default]; !ok {
		return nil, fmt.Errorf("default framework %q is not defined", c.Default)
	}
	return &c, nil
}

// WithDefault returns a copy of the catalogue whose default is id, when id is
// a known framework.
func (c *Catalog) WithDefault(id string) *Catalog {
	if _, ok := c.byID[id]; !ok {
		return c
	}
	cp := *c
	cp.Default = id
	return &cp
}

// Get returns the framework with id, falling back to the default framework
// for unknown or empty ids.
func (c *Catalog) Get(id string) Framework {
	if i, ok := c.byID[id]; ok {
		return c.Frameworks[i]
	}
	return c.Frameworks[c.byID[c.Default]]
}

// Lookup is Get without the fallback.
func (c *Catalog) Lookup(id string) (Framework, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Framework{}, false
	}
	return c.Frameworks[i], true
}

func (c *Catalog) List() []Framework {
	out := make([]Framework, len(c.Frameworks))
	copy(out, c.Frameworks)
	return out
}

func (c *Catalog) Colors(id string) map[string]string {
	return c.Get(id).Colors()
}
