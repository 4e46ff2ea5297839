// Package config provides loading and validation of semtrace project
// configuration files.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTemplate is used by generators that do not name a template.
	DefaultTemplate = "hal_implementation"
	// DefaultIDFormat documents the identifier layout; it is informational only.
	DefaultIDFormat = "{tier}-{category}-{number:03d}"
	// DefaultDocsRoot is resolved against the working directory.
	DefaultDocsRoot = "docs"
	// DefaultDocPattern selects documentation files directly under the root.
	DefaultDocPattern = "*.md"
)

// Config represents a complete project configuration.
type Config struct {
	ProjectName        string              `yaml:"project_name"`
	TraceabilitySchema TraceabilitySchema  `yaml:"traceability_schema"`
	Documentation      DocumentationConfig `yaml:"documentation"`
	CodeGenerators     Generators          `yaml:"code_generators"`
	ValidationRules    ValidationRules     `yaml:"validation_rules"`
}

// TraceabilitySchema describes the project's identifier layout.
type TraceabilitySchema struct {
	// IDFormat is a human-readable layout such as "{tier}-{category}-{number:03d}".
	// Scans always use the built-in grammar regardless of this value.
	IDFormat string `yaml:"id_format"`
}

// DocumentationConfig locates the documentation tree.
type DocumentationConfig struct {
	// Root is the documentation directory (default: docs).
	Root string `yaml:"root"`
	// Pattern is the glob for documents directly under Root (default: *.md).
	Pattern string `yaml:"pattern"`
}

// ValidationRules configures the validation checks.
type ValidationRules struct {
	// CrossReferenceTargets are file names expected to exist under the
	// documentation root.
	CrossReferenceTargets []string `yaml:"cross_reference_targets"`
	// RequiredDerivationFields names the fields a derivation block must carry.
	RequiredDerivationFields []string `yaml:"required_derivation_fields"`
}

// GeneratorConfig describes one code generation target.
type GeneratorConfig struct {
	Template           string   `yaml:"template"`
	TargetStruct       string   `yaml:"target_struct"`
	TraitImpl          string   `yaml:"trait_impl"`
	SafetyRequirements []string `yaml:"safety_requirements"`
	TraceabilityIDs    []string `yaml:"traceability_ids"`
	Description        string   `yaml:"description"`
	SafetyCritical     bool     `yaml:"safety_critical"`

	// Extra holds keys not modelled above so custom templates can read them.
	Extra map[string]any `yaml:",inline"`
}

// DefaultConfig returns a Config with defaults applied and no generators.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.TraceabilitySchema.IDFormat == "" {
		c.TraceabilitySchema.IDFormat = DefaultIDFormat
	}
	if c.Documentation.Root == "" {
		c.Documentation.Root = DefaultDocsRoot
	}
	if c.Documentation.Pattern == "" {
		c.Documentation.Pattern = DefaultDocPattern
	}
	for _, name := range c.CodeGenerators.names {
		gen := c.CodeGenerators.byName[name]
		if gen.Template == "" {
			gen.Template = DefaultTemplate
			c.CodeGenerators.byName[name] = gen
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return fmt.Errorf("project_name is required")
	}
	if !doublestar.ValidatePattern(c.Documentation.Pattern) {
		return fmt.Errorf("documentation.pattern %q is not a valid glob", c.Documentation.Pattern)
	}
	for _, target := range c.ValidationRules.CrossReferenceTargets {
		if target == "" {
			return fmt.Errorf("validation_rules.cross_reference_targets contains an empty name")
		}
	}
	for _, name := range c.CodeGenerators.names {
		if name == "" {
			return fmt.Errorf("code_generators contains an empty generator name")
		}
	}
	return nil
}

// LoadFromFile reads a JSON or YAML configuration file. Environment
// references of the form ${VAR} or ${VAR:-default} are expanded before
// parsing. Defaults are applied but the result is not validated.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse([]byte(ExpandEnv(string(data))))
}

// Parse decodes configuration content. A JSON object is decoded with
// encoding/json, so every JSON escape is honoured; anything else is YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if isJSON(data) {
		node, err := jsonNode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

var envRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references. Unset variables
// without a default expand to the empty string. Bare $VAR is left untouched
// so literal dollar signs in descriptions survive.
func ExpandEnv(s string) string {
	return envRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRefRe.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok && v != "" {
			return v
		}
		return m[2]
	})
}
