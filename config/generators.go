package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Generators is the code_generators mapping. It keeps the order in which
// generators are declared in the configuration file.
type Generators struct {
	names  []string
	byName map[string]GeneratorConfig
}

// NewGenerators builds an ordered set from name/config pairs, mainly for
// programmatic configuration and tests.
func NewGenerators(entries ...NamedGenerator) Generators {
	g := Generators{byName: make(map[string]GeneratorConfig, len(entries))}
	for _, e := range entries {
		g.Set(e.Name, e.Config)
	}
	return g
}

// NamedGenerator pairs a generator name with its configuration.
type NamedGenerator struct {
	Name   string
	Config GeneratorConfig
}

// UnmarshalYAML decodes a mapping node while recording key order.
func (g *Generators) UnmarshalYAML(value *yaml.Node) error {
	g.names = nil
	g.byName = make(map[string]GeneratorConfig)

	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("code_generators: expected a mapping, line %d", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("code_generators: line %d: %w", keyNode.Line, err)
		}
		if _, dup := g.byName[name]; dup {
			return fmt.Errorf("code_generators: duplicate generator %q at line %d", name, keyNode.Line)
		}

		var gen GeneratorConfig
		if err := valNode.Decode(&gen); err != nil {
			return fmt.Errorf("code_generators.%s: %w", name, err)
		}
		g.names = append(g.names, name)
		g.byName[name] = gen
	}
	return nil
}

// Set adds or replaces a generator. New names are appended to the order.
func (g *Generators) Set(name string, cfg GeneratorConfig) {
	if g.byName == nil {
		g.byName = make(map[string]GeneratorConfig)
	}
	if _, exists := g.byName[name]; !exists {
		g.names = append(g.names, name)
	}
	g.byName[name] = cfg
}

// Get returns the named generator configuration.
func (g Generators) Get(name string) (GeneratorConfig, bool) {
	cfg, ok := g.byName[name]
	return cfg, ok
}

// Names returns generator names in declaration order.
func (g Generators) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of generators.
func (g Generators) Len() int {
	return len(g.names)
}
