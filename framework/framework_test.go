package framework

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtrace/config"
	"github.com/c360studio/semtrace/metrics"
	"github.com/c360studio/semtrace/templates"
	"github.com/c360studio/semtrace/validation"
)

const projectConfig = `{
  "project_name": "Flight Controller",
  "code_generators": {
    "imu-driver": {
      "template": "hal_implementation",
      "target_struct": "ImuDriver",
      "trait_impl": "ImuTrait",
      "safety_requirements": ["T1-SAF-001"],
      "traceability_ids": ["T2-HAL-001"]
    },
    "attitude-controller": {
      "template": "control_system",
      "target_struct": "AttitudeController"
    },
    "legacy-mixer": {
      "template": "not_a_template"
    }
  },
  "validation_rules": {
    "cross_reference_targets": ["Requirements.md", "Architecture.md"],
    "required_derivation_fields": ["derived_from"]
  }
}`

type project struct {
	configPath string
	docs       string
}

func newProject(t *testing.T, docs map[string]string) project {
	t.Helper()
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0755))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(docsDir, name), []byte(content), 0644))
	}
	configPath := filepath.Join(dir, "project-config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(projectConfig), 0644))
	return project{configPath: configPath, docs: docsDir}
}

type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) {
	e.codes = append(e.codes, code)
}

func newFramework(t *testing.T, p project, opts ...Option) (*Framework, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithDocsRoot(p.docs)}, opts...)
	fw, err := New(p.configPath, opts...)
	require.NoError(t, err)
	return fw, &out
}

func cleanDocs() map[string]string {
	return map[string]string{
		"Requirements.md": "# Requirements\nT1-REQ-001 Attitude hold\nT1-SAF-001 Motor cut on fault\n",
		"Architecture.md": "# Architecture\nT2-HAL-001 IMU driver\nSamples at 1 kHz\n",
	}
}

func TestNew(t *testing.T) {
	p := newProject(t, nil)

	fw, err := New(p.configPath)
	require.NoError(t, err)

	assert.Equal(t, "Flight Controller", fw.Config().ProjectName)
	assert.Equal(t, p.configPath, fw.ConfigPath())
	assert.Equal(t, config.DefaultDocsRoot, fw.DocsRoot())
	assert.Empty(t, fw.Issues())
}

func TestNew_LoadFailures(t *testing.T) {
	dir := t.TempDir()
	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{"project_name": `), 0644))
	noName := filepath.Join(dir, "noname.json")
	require.NoError(t, os.WriteFile(noName, []byte(`{"code_generators": {}}`), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"malformed", badJSON},
		{"invalid", noName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, err := New(tt.path)
			require.Error(t, err)
			assert.Nil(t, fw)
		})
	}
}

func TestNewFromConfig_Nil(t *testing.T) {
	_, err := NewFromConfig(nil)
	require.Error(t, err)
}

func TestAvailableGenerators_DeclarationOrder(t *testing.T) {
	fw, _ := newFramework(t, newProject(t, nil))

	assert.Equal(t, []string{"imu-driver", "attitude-controller", "legacy-mixer"}, fw.AvailableGenerators())
}

func TestValidateAll_Clean(t *testing.T) {
	exits := &exitRecorder{}
	fw, out := newFramework(t, newProject(t, cleanDocs()), WithExitFunc(exits.exit))

	issues, err := fw.ValidateAll(true)
	require.NoError(t, err)

	assert.Empty(t, issues)
	assert.Empty(t, exits.codes)
	assert.Contains(t, out.String(), "Flight Controller Engineering Validation")
	assert.Contains(t, out.String(), "Health Score: 100%")
}

func TestValidateAll_NonBlockingReturnsIssues(t *testing.T) {
	docs := map[string]string{
		"Requirements.md": "T1-REQ-001 first\n",
		"Design.md":       "T1-REQ-001 again\n",
	}
	exits := &exitRecorder{}
	fw, out := newFramework(t, newProject(t, docs), WithExitFunc(exits.exit))

	issues, err := fw.ValidateAll(false)
	require.NoError(t, err)

	assert.Empty(t, exits.codes)
	require.Len(t, issues, 2)
	assert.Equal(t, validation.CategoryDuplicateID, issues[0].Category)
	assert.Equal(t, validation.SeverityError, issues[0].Severity)
	assert.Equal(t, validation.CategoryMissingFile, issues[1].Category)
	assert.Contains(t, issues[1].Message, "Architecture.md")
	assert.Equal(t, issues, fw.Issues())
	assert.Contains(t, out.String(), "Found 1 errors, 1 warnings")
}

func TestValidateAll_BlockingExitsOnError(t *testing.T) {
	docs := map[string]string{
		"Requirements.md": "T1-REQ-001 first\nT1-REQ-001 again\n",
		"Architecture.md": "",
	}
	exits := &exitRecorder{}
	fw, _ := newFramework(t, newProject(t, docs), WithExitFunc(exits.exit))

	_, err := fw.ValidateAll(true)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, exits.codes)
}

func TestValidateAll_BlockingIgnoresWarnings(t *testing.T) {
	docs := map[string]string{"Requirements.md": "T1-REQ-001\n"}
	exits := &exitRecorder{}
	fw, _ := newFramework(t, newProject(t, docs), WithExitFunc(exits.exit))

	issues, err := fw.ValidateAll(true)
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, validation.SeverityWarning, issues[0].Severity)
	assert.Empty(t, exits.codes)
}

func TestValidateAll_ReplacesPreviousIssues(t *testing.T) {
	p := newProject(t, map[string]string{"Requirements.md": "T1-REQ-001\n"})
	fw, _ := newFramework(t, p)

	_, err := fw.ValidateAll(false)
	require.NoError(t, err)
	require.Len(t, fw.Issues(), 1)

	require.NoError(t, os.WriteFile(filepath.Join(p.docs, "Architecture.md"), nil, 0644))
	_, err = fw.ValidateAll(false)
	require.NoError(t, err)
	assert.Empty(t, fw.Issues())
}

func TestValidateAll_MissingRoot(t *testing.T) {
	p := newProject(t, nil)
	rec := metrics.NewRecorder()
	fw, _ := newFramework(t, p, WithDocsRoot(filepath.Join(p.docs, "absent")), WithMetrics(rec))

	issues, err := fw.ValidateAll(false)
	require.Error(t, err)
	assert.Nil(t, issues)
	assert.Empty(t, fw.Issues())
}

func TestValidateAll_RecordsMetrics(t *testing.T) {
	docs := map[string]string{"Requirements.md": "T1-REQ-001\nT1-REQ-001\n"}
	rec := metrics.NewRecorder()
	fw, _ := newFramework(t, newProject(t, docs), WithMetrics(rec))

	_, err := fw.ValidateAll(false)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(rec.Registry(), "semtrace_validation_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateModule_ControlSystem(t *testing.T) {
	fw, out := newFramework(t, newProject(t, cleanDocs()))

	code, err := fw.GenerateModule("attitude-controller")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, "//! Generated Control System"))
	assert.Contains(t, code, "pub struct AttitudeController {")
	assert.Contains(t, code, "impl AttitudeController {")
	assert.Contains(t, code, "pub fn update(&mut self, dt: f32) -> HalResult<()>")
	assert.Contains(t, out.String(), code)
}

func TestGenerateModule_HALCitesSpecification(t *testing.T) {
	fw, _ := newFramework(t, newProject(t, cleanDocs()))

	code, err := fw.GenerateModule("imu-driver")
	require.NoError(t, err)

	assert.Contains(t, code, "//! Traces: T2-HAL-001: Generated Implementation")
	assert.Contains(t, code, "//!   T2-HAL-001 IMU driver")
	assert.Contains(t, code, "//! Safety requirement: T1-SAF-001")
	assert.Contains(t, code, "impl ImuTrait for ImuDriver {")
}

func TestGenerateModule_WarnsOnUnrecognizedIDs(t *testing.T) {
	p := newProject(t, map[string]string{"Notes.md": "see legacy ref ABC-7 here\n"})
	cfg, err := config.LoadFromFile(p.configPath)
	require.NoError(t, err)
	cfg.CodeGenerators.Set("legacy-driver", config.GeneratorConfig{
		Template:        templates.NameHALImplementation,
		TraceabilityIDs: []string{"ABC-7", "T2-HAL-001"},
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	fw, err := NewFromConfig(cfg, WithLogger(logger), WithOutput(&bytes.Buffer{}), WithDocsRoot(p.docs))
	require.NoError(t, err)

	code, err := fw.GenerateModule("legacy-driver")
	require.NoError(t, err)

	assert.Contains(t, code, "//!   see legacy ref ABC-7 here")
	assert.Contains(t, logs.String(), "id=ABC-7")
	assert.NotContains(t, logs.String(), "id=T2-HAL-001")
}

func TestGenerateModule_UnknownGenerator(t *testing.T) {
	rec := metrics.NewRecorder()
	fw, out := newFramework(t, newProject(t, nil), WithMetrics(rec))

	code, err := fw.GenerateModule("nonexistent")
	require.Error(t, err)
	assert.Empty(t, code)

	var lookup *LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, LookupGenerator, lookup.Kind)
	assert.Equal(t, "nonexistent", lookup.Requested)
	assert.Equal(t, fw.AvailableGenerators(), lookup.Available)
	assert.True(t, errors.Is(err, ErrUnknownGenerator))
	assert.Contains(t, out.String(), "imu-driver, attitude-controller, legacy-mixer")

	_, err = fw.GenerateModule("another-typo")
	require.Error(t, err)
	assert.Equal(t, map[string]float64{"unknown": 2}, generationCounts(t, rec, metrics.ResultUnknownGenerator))
}

// generationCounts returns semtrace_generations_total by generator label for
// the given result.
func generationCounts(t *testing.T, rec *metrics.Recorder, result string) map[string]float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "semtrace_generations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["result"] == result {
				counts[labels["generator"]] += m.GetCounter().GetValue()
			}
		}
	}
	return counts
}

func TestGenerateModule_UnknownTemplate(t *testing.T) {
	rec := metrics.NewRecorder()
	fw, out := newFramework(t, newProject(t, nil), WithMetrics(rec))

	code, err := fw.GenerateModule("legacy-mixer")
	require.Error(t, err)
	assert.Empty(t, code)

	var lookup *LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, LookupTemplate, lookup.Kind)
	assert.Equal(t, "not_a_template", lookup.Requested)
	assert.Equal(t, "legacy-mixer", lookup.Generator)
	assert.ElementsMatch(t, []string{templates.NameHALImplementation, templates.NameControlSystem}, lookup.Available)
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
	assert.Contains(t, out.String(), "not_a_template")
	assert.Equal(t, map[string]float64{"legacy-mixer": 1}, generationCounts(t, rec, metrics.ResultUnknownTemplate))
}

func TestGenerateModule_MissingDocsWithIDs(t *testing.T) {
	p := newProject(t, nil)
	fw, _ := newFramework(t, p, WithDocsRoot(filepath.Join(p.docs, "absent")))

	_, err := fw.GenerateModule("imu-driver")
	require.Error(t, err)

	code, err := fw.GenerateModule("attitude-controller")
	require.NoError(t, err)
	assert.NotEmpty(t, code)
}

func TestAddCustomTemplate(t *testing.T) {
	fw, _ := newFramework(t, newProject(t, nil))

	fw.AddCustomTemplate("not_a_template", templates.TemplateFunc(
		func(cfg config.GeneratorConfig, specs []string) (string, error) {
			return "// mixer " + cfg.Template, nil
		}))

	code, err := fw.GenerateModule("legacy-mixer")
	require.NoError(t, err)
	assert.Equal(t, "// mixer not_a_template", code)
	assert.Contains(t, fw.AvailableTemplates(), "not_a_template")
}

func TestAddCustomTemplate_OverridesBuiltin(t *testing.T) {
	fw, _ := newFramework(t, newProject(t, nil))

	fw.AddCustomTemplate(templates.NameControlSystem, templates.TemplateFunc(
		func(cfg config.GeneratorConfig, _ []string) (string, error) {
			return "custom " + cfg.TargetStruct, nil
		}))

	code, err := fw.GenerateModule("attitude-controller")
	require.NoError(t, err)
	assert.Equal(t, "custom AttitudeController", code)
}

func TestGenerateModule_TemplateError(t *testing.T) {
	rec := metrics.NewRecorder()
	fw, _ := newFramework(t, newProject(t, nil), WithMetrics(rec))

	fw.AddCustomTemplate(templates.NameControlSystem, templates.TemplateFunc(
		func(config.GeneratorConfig, []string) (string, error) {
			return "", fmt.Errorf("boom")
		}))

	_, err := fw.GenerateModule("attitude-controller")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLookupError_Message(t *testing.T) {
	err := &LookupError{Kind: LookupGenerator, Requested: "x"}
	assert.Equal(t, `no generator configured for "x" (available: none)`, err.Error())
}
