package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/c360studio/semtrace/config"
)

// Default type names used when a generator leaves them unset.
const (
	DefaultHALStruct        = "GenericHalImpl"
	DefaultHALTrait         = "GenericTrait"
	DefaultControllerStruct = "GenericController"
)

const (
	noIDsComment  = "//! Generated from project specifications"
	noSpecComment = "Generated from specifications"
)

var halTemplate = template.Must(template.New(NameHALImplementation).Parse(`//! Generated HAL Implementation
//!
{{ .Traceability }}
{{- range .SafetyRequirements }}
//! Safety requirement: {{ . }}
{{- end }}

use crate::{HalResult, HalError};

/// Hardware-specific implementation
pub struct {{ .Struct }} {
    initialized: bool,
    // TODO: Add hardware-specific fields
}

impl {{ .Struct }} {
    pub fn new() -> Self {
        Self {
            initialized: false,
        }
    }

    pub fn init(&mut self) -> HalResult<()> {
        // TODO: Initialize hardware
        self.initialized = true;
        Ok(())
    }
}

impl {{ .Trait }} for {{ .Struct }} {
    // TODO: Implement trait methods based on specifications
}

#[cfg(test)]
mod tests {
    use super::*;

    #[test]
    fn test_initialization() {
        let mut impl_instance = {{ .Struct }}::new();
        assert!(impl_instance.init().is_ok());
    }
}
`))

var controlTemplate = template.Must(template.New(NameControlSystem).Parse(`//! Generated Control System
//!
//! Generated from specifications

use crate::{HalResult, HalError};

pub struct {{ .Struct }} {
    enabled: bool,
    // TODO: Add control-specific fields
}

impl {{ .Struct }} {
    pub fn new() -> Self {
        Self {
            enabled: false,
        }
    }

    /// Main control loop update
    pub fn update(&mut self, dt: f32) -> HalResult<()> {
        // TODO: Implement control logic from specifications
        Ok(())
    }
}
`))

// scaffoldData is the view passed to the built-in templates.
type scaffoldData struct {
	Struct             string
	Trait              string
	Traceability       string
	SafetyRequirements []string
}

// HALImplementation renders a hardware abstraction layer implementation:
// a struct with an initialization flag, a constructor, an init operation, an
// empty trait implementation and one initialization test. The module header
// cites the generator's traceability IDs and the first specification window.
type HALImplementation struct{}

// Generate implements Template.
func (HALImplementation) Generate(cfg config.GeneratorConfig, specs []string) (string, error) {
	data := scaffoldData{
		Struct:             orDefault(cfg.TargetStruct, DefaultHALStruct),
		Trait:              orDefault(cfg.TraitImpl, DefaultHALTrait),
		Traceability:       traceabilityComment(cfg.TraceabilityIDs, specs),
		SafetyRequirements: cfg.SafetyRequirements,
	}
	return execute(halTemplate, data)
}

// ControlSystem renders a control loop: a struct with an enabled flag, a
// constructor and an update operation taking the time step.
type ControlSystem struct{}

// Generate implements Template.
func (ControlSystem) Generate(cfg config.GeneratorConfig, specs []string) (string, error) {
	data := scaffoldData{
		Struct: orDefault(cfg.TargetStruct, DefaultControllerStruct),
	}
	return execute(controlTemplate, data)
}

// traceabilityComment builds the module doc comment linking generated code
// to its identifiers. Each line of the cited window becomes a doc comment line.
func traceabilityComment(ids, specs []string) string {
	if len(ids) == 0 {
		return noIDsComment
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("//! Traces: %s: Generated Implementation\n", strings.Join(ids, ", ")))

	if len(specs) == 0 {
		sb.WriteString("//! Specification: " + noSpecComment)
		return sb.String()
	}

	sb.WriteString("//! Specification:")
	for _, line := range strings.Split(specs[0], "\n") {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight("//!   "+line, " \t"))
	}
	return sb.String()
}

func execute(t *template.Template, data scaffoldData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
