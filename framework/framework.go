// Package framework ties configuration, validation, specification extraction
// and templates together behind a single entry point.
//
// A Framework is built from one project configuration file:
//
//	fw, err := framework.New("tools/project-config.json")
//	if err != nil {
//		return err
//	}
//	issues, err := fw.ValidateAll(false)
//	code, err := fw.GenerateModule("attitude-controller")
package framework

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/c360studio/semtrace/config"
	"github.com/c360studio/semtrace/extract"
	"github.com/c360studio/semtrace/metrics"
	"github.com/c360studio/semtrace/templates"
	"github.com/c360studio/semtrace/trace"
	"github.com/c360studio/semtrace/validation"
)

// ExitFunc terminates the process. Blocking validation calls it with a
// non-zero status when error issues are found.
type ExitFunc func(code int)

// Option configures a Framework.
type Option func(*Framework)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOutput sets where summaries, diagnostics and generated code are echoed.
func WithOutput(w io.Writer) Option {
	return func(f *Framework) {
		if w != nil {
			f.out = w
		}
	}
}

// WithExitFunc replaces os.Exit for blocking validation.
func WithExitFunc(exit ExitFunc) Option {
	return func(f *Framework) {
		if exit != nil {
			f.exit = exit
		}
	}
}

// WithDocsRoot overrides the documentation root from the configuration.
func WithDocsRoot(root string) Option {
	return func(f *Framework) {
		if root != "" {
			f.docsRoot = root
		}
	}
}

// WithMetrics records validation and generation activity.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(f *Framework) {
		f.metrics = recorder
	}
}

// Framework orchestrates validation and generation for one project.
type Framework struct {
	cfg        *config.Config
	configPath string
	docsRoot   string

	engine    *validation.Engine
	extractor *extract.Extractor
	templates *templates.Registry

	// issues holds the results of the most recent ValidateAll.
	issues []validation.Issue

	logger  *slog.Logger
	out     io.Writer
	exit    ExitFunc
	metrics *metrics.Recorder
}

// New loads the configuration at configPath and builds a Framework. Any
// failure to read, parse or validate the configuration is returned and no
// Framework is produced.
func New(configPath string, opts ...Option) (*Framework, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load project config %s: %w", configPath, err)
	}
	f, err := NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("load project config %s: %w", configPath, err)
	}
	f.configPath = configPath
	return f, nil
}

// NewFromConfig builds a Framework from an already loaded configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Framework, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	f := &Framework{
		cfg:       cfg,
		docsRoot:  cfg.Documentation.Root,
		templates: templates.NewRegistry(),
		logger:    slog.Default(),
		out:       os.Stdout,
		exit:      os.Exit,
	}
	for _, opt := range opts {
		opt(f)
	}

	exCfg := extract.DefaultConfig()
	exCfg.Pattern = cfg.Documentation.Pattern
	extractor, err := extract.New(exCfg, f.logger)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	f.extractor = extractor
	f.engine = validation.NewEngine(f.logger)

	f.logger.Debug("Framework ready",
		slog.String("project", cfg.ProjectName),
		slog.String("docs_root", f.docsRoot),
		slog.Int("generators", cfg.CodeGenerators.Len()))
	return f, nil
}

// Config returns the loaded configuration. Callers must not modify it.
func (f *Framework) Config() *config.Config {
	return f.cfg
}

// ConfigPath returns the file the configuration was loaded from, if any.
func (f *Framework) ConfigPath() string {
	return f.configPath
}

// DocsRoot returns the documentation root scanned by this Framework.
func (f *Framework) DocsRoot() string {
	return f.docsRoot
}

// ValidateAll runs every validation check, replaces the stored issue list
// and writes a summary to the output. When blocking is true and an error
// issue was found the exit function is called with status 1; otherwise the
// issues are returned. A documentation tree that cannot be read is returned
// as an error and leaves no stored issues.
func (f *Framework) ValidateAll(blocking bool) ([]validation.Issue, error) {
	f.issues = nil
	start := time.Now()

	issues, err := f.engine.Validate(validation.RulesFromConfig(f.cfg), f.docsRoot)
	if err != nil {
		f.metrics.ObserveScanFailure()
		return nil, fmt.Errorf("validate documentation: %w", err)
	}
	f.issues = issues
	f.metrics.ObserveValidation(issueLabels(issues), time.Since(start))

	if err := validation.WriteSummary(f.out, f.cfg.ProjectName, issues); err != nil {
		f.logger.Warn("Failed to write validation summary", slog.String("error", err.Error()))
	}

	if blocking && validation.HasErrors(issues) {
		f.logger.Error("Blocking validation failed",
			slog.Int("errors", validation.Count(issues, validation.SeverityError)))
		f.exit(1)
	}
	return issues, nil
}

// Issues returns the issues found by the most recent ValidateAll.
func (f *Framework) Issues() []validation.Issue {
	out := make([]validation.Issue, len(f.issues))
	copy(out, f.issues)
	return out
}

// GenerateModule renders the named generator. Unknown generator or template
// names return an empty result and a *LookupError listing what is
// available; the diagnostic is also written to the output. On success the
// generated text is echoed to the output and returned.
func (f *Framework) GenerateModule(name string) (string, error) {
	gen, ok := f.cfg.CodeGenerators.Get(name)
	if !ok {
		err := &LookupError{Kind: LookupGenerator, Requested: name, Available: f.AvailableGenerators()}
		f.reportLookup(metrics.UnknownGenerator, metrics.ResultUnknownGenerator, err)
		return "", err
	}

	tpl, ok := f.templates.Get(gen.Template)
	if !ok {
		err := &LookupError{Kind: LookupTemplate, Requested: gen.Template, Available: f.templates.Names(), Generator: name}
		f.reportLookup(name, metrics.ResultUnknownTemplate, err)
		return "", err
	}

	f.warnUnrecognizedIDs(name, gen.TraceabilityIDs)
	specs, err := f.extractor.Extract(f.docsRoot, gen.TraceabilityIDs)
	if err != nil {
		f.metrics.ObserveGeneration(name, metrics.ResultError)
		return "", fmt.Errorf("extract specifications for %s: %w", name, err)
	}

	code, err := tpl.Generate(gen, specs)
	if err != nil {
		f.metrics.ObserveGeneration(name, metrics.ResultError)
		return "", fmt.Errorf("generate %s with template %s: %w", name, gen.Template, err)
	}

	f.metrics.ObserveGeneration(name, metrics.ResultSuccess)
	f.logger.Info("Generated module",
		slog.String("generator", name),
		slog.String("template", gen.Template),
		slog.Int("specs", len(specs)))
	fmt.Fprintf(f.out, "Generated module %s:\n%s\n", name, code)
	return code, nil
}

// warnUnrecognizedIDs logs configured IDs outside the identifier grammar.
// They are still searched for literally.
func (f *Framework) warnUnrecognizedIDs(generator string, ids []string) {
	for _, raw := range ids {
		if _, err := trace.Parse(raw); err != nil {
			f.logger.Warn("Traceability ID does not match identifier grammar",
				slog.String("generator", generator),
				slog.String("id", raw))
		}
	}
}

func (f *Framework) reportLookup(generatorLabel, result string, err *LookupError) {
	f.metrics.ObserveGeneration(generatorLabel, result)
	f.logger.Warn("Generation lookup failed",
		slog.String("kind", string(err.Kind)),
		slog.String("requested", err.Requested))
	fmt.Fprintln(f.out, err.Error())
}

// AvailableGenerators returns the configured generator names in the order
// they are declared in the configuration.
func (f *Framework) AvailableGenerators() []string {
	return f.cfg.CodeGenerators.Names()
}

// AvailableTemplates returns the registered template names.
func (f *Framework) AvailableTemplates() []string {
	return f.templates.Names()
}

// AddCustomTemplate registers t under name, replacing any existing template
// with that name.
func (f *Framework) AddCustomTemplate(name string, t templates.Template) {
	f.templates.Register(name, t)
	f.logger.Debug("Registered template", slog.String("name", name))
}

func issueLabels(issues []validation.Issue) []metrics.IssueLabel {
	labels := make([]metrics.IssueLabel, 0, len(issues))
	for _, i := range issues {
		labels = append(labels, metrics.IssueLabel{Severity: string(i.Severity), Category: i.Category})
	}
	return labels
}
