// Package sandbox materializes candidate chains in isolation: it acquires
// elements from a per-planning-pass cache, links and negotiates them
// against a probe consumer, extracts the fixated per-step profile and
// prices the result as a costed proposal.
package sandbox

import (
	"fmt"

	"github.com/aretw0/switchyard/pkg/ports"
)

// Cache pools test elements per factory for one planning pass, so the many
// chains sharing a factory reuse instances instead of creating one per
// candidate.
type Cache struct {
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	factory   ports.ElementFactory
	instances []ports.Element
	inUse     []bool
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Acquire returns an idle instance of the factory, creating one when every
// pooled instance is in use. The instance is marked in-use until Release.
func (c *Cache) Acquire(factory ports.ElementFactory) (ports.Element, error) {
	entry, ok := c.entries[factory.ID()]
	if !ok {
		entry = &cacheEntry{factory: factory}
		c.entries[factory.ID()] = entry
	}

	for i, used := range entry.inUse {
		if !used {
			entry.inUse[i] = true
			return entry.instances[i], nil
		}
	}

	name := fmt.Sprintf("test_%s_%d", factory.ID(), len(entry.instances))
	element, err := entry.factory.Create(name)
	if err != nil {
		return nil, fmt.Errorf("sandbox: create %s: %w", factory.ID(), err)
	}
	if err := element.Start(); err != nil {
		return nil, fmt.Errorf("sandbox: start %s: %w", name, err)
	}

	entry.instances = append(entry.instances, element)
	entry.inUse = append(entry.inUse, true)
	return element, nil
}

// Release marks the instance idle again.
func (c *Cache) Release(element ports.Element) {
	for _, entry := range c.entries {
		for i, inst := range entry.instances {
			if inst == element {
				entry.inUse[i] = false
				return
			}
		}
	}
}

// Close stops every pooled instance. The cache must not be used afterward.
func (c *Cache) Close() {
	for _, entry := range c.entries {
		for _, inst := range entry.instances {
			_ = inst.Stop()
		}
	}
	c.entries = nil
}
