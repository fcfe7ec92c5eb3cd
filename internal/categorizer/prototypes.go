package categorizer

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/consistencyguard/internal/embedding"
)

//go:embed prototypes.yaml
var defaultPrototypesYAML []byte

// CategoryExamples is one curated category and its exemplar sentences.
type CategoryExamples struct {
	Name      string   `yaml:"name"`
	Sentences []string `yaml:"sentences"`
}

// PrototypeSet is the immutable, ordered set of curated categories.
type PrototypeSet struct {
	Categories []CategoryExamples `yaml:"categories"`

	index map[string]int
}

// DefaultPrototypes returns the built-in curated set (Amazon leadership principles).
func DefaultPrototypes() (*PrototypeSet, error) {
	return ParsePrototypes(defaultPrototypesYAML)
}

func ParsePrototypes(data []byte) (*PrototypeSet, error) {
	var set PrototypeSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prototypes: %w", err)
	}
	set.index = make(map[string]int, len(set.Categories))
	for i, c := range set.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("prototype %d has no name", i)
		}
		if len(c.Sentences) == 0 {
			return nil, fmt.Errorf("prototype %q has no sentences", c.Name)
		}
		if _, dup := set.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate prototype %q", c.Name)
		}
		set.index[c.Name] = i
	}
	return &set, nil
}

// Names lists curated categories in declaration order.
func (s *PrototypeSet) Names() []string {
	names := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		names[i] = c.Name
	}
	return names
}

func (s *PrototypeSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

type PrototypeKind int

const (
	// Curated prototypes carry the mean embedding of their exemplar sentences.
	Curated PrototypeKind = iota
	// NameDerived prototypes embed the category name itself at comparison time.
	NameDerived
)

func (k PrototypeKind) String() string {
	switch k {
	case Curated:
		return "curated"
	case NameDerived:
		return "name-derived"
	default:
		return "unknown"
	}
}

// Prototype is the semantic anchor a text is compared against for one category.
type Prototype struct {
	Category string
	Kind     PrototypeKind
	Centroid []float32 // set only for Curated
}

func CuratedPrototype(category string, centroid []float32) Prototype {
	return Prototype{Category: category, Kind: Curated, Centroid: centroid}
}

func NameDerivedPrototype(category string) Prototype {
	return Prototype{Category: category, Kind: NameDerived}
}

// Vector resolves the prototype to the vector used for comparison.
func (p Prototype) Vector(ctx context.Context, provider embedding.Provider) ([]float32, error) {
	if p.Kind == Curated {
		return p.Centroid, nil
	}
	return provider.Encode(ctx, p.Category)
}
