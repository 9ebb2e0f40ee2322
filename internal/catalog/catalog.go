// Package catalog holds the display labels, descriptions and auditor
// guidance for the audit categories.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"leadaudit/pkg/models"
)

//go:embed categories.yaml
var categoriesYAML []byte

type ScoringGuide struct {
	Pass    string `yaml:"pass" json:"pass"`
	Warning string `yaml:"warning" json:"warning"`
	Fail    string `yaml:"fail" json:"fail"`
}

type Entry struct {
	Key         models.Category `yaml:"key" json:"key"`
	Label       string          `yaml:"label" json:"label"`
	Description string          `yaml:"description" json:"description"`
	LookFor     []string        `yaml:"look_for" json:"look_for"`
	Deliverable string          `yaml:"deliverable" json:"deliverable"`
	Scoring     ScoringGuide    `yaml:"scoring" json:"scoring"`
	Tools       []string        `yaml:"tools" json:"tools"`
}

type Catalog struct {
	entries []Entry
	byKey   map[models.Category]Entry
}

var defaultCatalog = mustLoad(categoriesYAML)

// Default returns the embedded catalog.
func Default() *Catalog { return defaultCatalog }

func mustLoad(b []byte) *Catalog {
	c, err := Parse(b)
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog document and checks that it lists every
// category exactly once, in report order.
func Parse(b []byte) (*Catalog, error) {
	var doc struct {
		Categories []Entry `yaml:"categories"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if len(doc.Categories) != len(models.Categories) {
		return nil, fmt.Errorf("catalog lists %d categories, want %d", len(doc.Categories), len(models.Categories))
	}

	c := &Catalog{
		entries: doc.Categories,
		byKey:   make(map[models.Category]Entry, len(doc.Categories)),
	}
	for i, e := range doc.Categories {
		if e.Key != models.Categories[i] {
			return nil, fmt.Errorf("catalog entry %d is %q, want %q", i, e.Key, models.Categories[i])
		}
		if e.Label == "" {
			return nil, fmt.Errorf("catalog entry %q has no label", e.Key)
		}
		c.byKey[e.Key] = e
	}
	return c, nil
}

// Entries returns the categories in report order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Get(key models.Category) (Entry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// Label falls back to the raw key for unknown categories.
func (c *Catalog) Label(key models.Category) string {
	if e, ok := c.byKey[key]; ok {
		return e.Label
	}
	return string(key)
}
