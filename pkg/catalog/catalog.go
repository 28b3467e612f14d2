// Package catalog loads factory catalogs from YAML files. A catalog
// document names the transformation factories, their caps in text form,
// and optional per-factory cost weights; the loader materializes them as
// memory-adapter factories and a ready-made policy record.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/switchyard/pkg/adapters/memory"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Entry is one factory of the catalog document.
type Entry struct {
	Name  string `yaml:"name"`
	Klass string `yaml:"klass"`
	Sink  string `yaml:"sink"`
	Src   string `yaml:"src"`

	// Cost weights every step this factory contributes. Zero means the
	// default weight of 1.
	Cost uint32 `yaml:"cost"`

	// Extra carries free-form metadata; recognized keys are decoded into
	// Extras.
	Extra map[string]any `yaml:"extra"`
}

// Extras are the recognized extra fields of an entry.
type Extras struct {
	// Hardware marks factories backed by hardware units; policies may
	// prefer or avoid them.
	Hardware bool `mapstructure:"hardware"`

	// Rank orders factories with otherwise equal cost.
	Rank int `mapstructure:"rank"`
}

type document struct {
	Factories []Entry `yaml:"factories"`
}

// Catalog is a loaded factory catalog.
type Catalog struct {
	entries   []Entry
	extras    map[string]Extras
	factories []ports.ElementFactory
	costs     map[string]uint32
}

// Load reads a catalog document from a file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return c, nil
}

// Parse reads a catalog document.
func Parse(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(doc.Factories) == 0 {
		return nil, fmt.Errorf("no factories declared")
	}

	c := &Catalog{
		entries: doc.Factories,
		extras:  make(map[string]Extras),
		costs:   make(map[string]uint32),
	}

	seen := make(map[string]bool)
	for _, e := range doc.Factories {
		if e.Name == "" {
			return nil, fmt.Errorf("factory without a name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate factory %q", e.Name)
		}
		seen[e.Name] = true

		sinkCaps, err := caps.Parse(e.Sink)
		if err != nil {
			return nil, fmt.Errorf("factory %q: sink caps: %w", e.Name, err)
		}
		srcCaps, err := caps.Parse(e.Src)
		if err != nil {
			return nil, fmt.Errorf("factory %q: src caps: %w", e.Name, err)
		}

		var extras Extras
		if e.Extra != nil {
			if err := mapstructure.Decode(e.Extra, &extras); err != nil {
				return nil, fmt.Errorf("factory %q: extra: %w", e.Name, err)
			}
		}
		c.extras[e.Name] = extras

		c.factories = append(c.factories, memory.NewFactory(e.Name, e.Klass, sinkCaps, srcCaps))
		if e.Cost > 0 {
			c.costs[e.Name] = e.Cost
		}
	}

	return c, nil
}

// Entries returns the raw catalog entries in document order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Extras returns the decoded extra fields of a factory.
func (c *Catalog) Extras(name string) Extras {
	return c.extras[name]
}

// Factories returns the catalog as element factories, in document order.
func (c *Catalog) Factories() []ports.ElementFactory {
	return c.factories
}

// CostStep prices a step by the factory's declared cost weight, defaulting
// to 1. It has the shape of the Policy.CostStep hook.
func (c *Catalog) CostStep(step *domain.TransformationStep) uint32 {
	if cost, ok := c.costs[step.FactoryID]; ok {
		return cost
	}
	return 1
}

// Policy builds a policy record serving this catalog with its cost table.
func (c *Catalog) Policy() ports.Policy {
	return ports.Policy{
		GetFactories: c.Factories,
		CostStep:     c.CostStep,
	}
}
