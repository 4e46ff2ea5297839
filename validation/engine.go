package validation

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semtrace/config"
	"github.com/c360studio/semtrace/source"
	"github.com/c360studio/semtrace/trace"
)

// Rules is the part of the project configuration the engine consumes.
type Rules struct {
	// Pattern selects documents directly under the root (default *.md).
	Pattern string
	// CrossReferenceTargets are names that must exist under the root.
	CrossReferenceTargets []string
	// RequiredDerivationFields feeds the derivation check.
	RequiredDerivationFields []string
}

// RulesFromConfig extracts validation rules from a project configuration.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		Pattern:                  cfg.Documentation.Pattern,
		CrossReferenceTargets:    cfg.ValidationRules.CrossReferenceTargets,
		RequiredDerivationFields: cfg.ValidationRules.RequiredDerivationFields,
	}
}

// Engine runs the validation checks. It keeps no state between runs.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a validation engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Validate runs every check against root and returns the combined issues in
// check order: duplicate IDs, cross-references, derivation fields. The first
// scan error aborts the run.
func (e *Engine) Validate(rules Rules, root string) ([]Issue, error) {
	runID := uuid.New().String()
	logger := e.logger.With(slog.String("run_id", runID), slog.String("root", root))
	start := time.Now()
	logger.Debug("Validation started")

	issues := make([]Issue, 0)

	dups, err := e.CheckDuplicateIDs(root, rules.Pattern)
	if err != nil {
		logger.Error("Duplicate ID check failed", slog.String("error", err.Error()))
		return nil, err
	}
	issues = append(issues, dups...)

	refs, err := e.CheckCrossReferences(root, rules.CrossReferenceTargets)
	if err != nil {
		logger.Error("Cross-reference check failed", slog.String("error", err.Error()))
		return nil, err
	}
	issues = append(issues, refs...)

	derivations, err := e.CheckDerivationFields(root, rules.RequiredDerivationFields)
	if err != nil {
		logger.Error("Derivation check failed", slog.String("error", err.Error()))
		return nil, err
	}
	issues = append(issues, derivations...)

	logger.Info("Validation finished",
		slog.Int("issues", len(issues)),
		slog.Int("errors", Count(issues, SeverityError)),
		slog.Int("warnings", Count(issues, SeverityWarning)),
		slog.Duration("duration", time.Since(start)))
	return issues, nil
}

// CheckDuplicateIDs reports every repeated occurrence of a traceability ID
// across the documents under root. The first occurrence is accepted; each
// later one, in the same file or another, yields one error issue located at
// the repeat.
func (e *Engine) CheckDuplicateIDs(root, pattern string) ([]Issue, error) {
	issues := make([]Issue, 0)
	seen := make(map[string]struct{})

	err := source.Walk(root, pattern, func(doc *source.Document) error {
		for n, line := range doc.Lines() {
			for _, id := range trace.FindAll(line) {
				if _, dup := seen[id.FullID]; !dup {
					seen[id.FullID] = struct{}{}
					continue
				}
				issues = append(issues, Issue{
					Severity: SeverityError,
					Category: CategoryDuplicateID,
					Message:  fmt.Sprintf("Duplicate traceability ID: %s", id.FullID),
					FilePath: doc.Path,
					Line:     n + 1,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Duplicate ID check complete",
		slog.Int("unique_ids", len(seen)),
		slog.Int("duplicates", len(issues)))
	return issues, nil
}

// CheckCrossReferences reports one warning per configured target missing
// under root. Repeated names are reported once per occurrence. Only
// existence is checked; a target that cannot be stat'ed for any reason other
// than absence aborts the check with a scan error.
func (e *Engine) CheckCrossReferences(root string, targets []string) ([]Issue, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	for _, target := range targets {
		ok, err := source.Exists(root, target)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategoryMissingFile,
			Message:  fmt.Sprintf("Referenced file missing: %s", target),
			FilePath: target,
		})
	}
	return issues, nil
}

// CheckDerivationFields is the derivation completeness pass. No rule is
// defined for it yet, so it always reports nothing; it stays a separate step
// so the set of checks run by Validate does not change when one is added.
func (e *Engine) CheckDerivationFields(root string, fields []string) ([]Issue, error) {
	e.logger.Debug("Derivation check has no rules", slog.Int("required_fields", len(fields)))
	return make([]Issue, 0), nil
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &source.ScanError{Path: root, Err: fmt.Errorf("%w: %w", source.ErrRootUnavailable, err)}
	}
	if !info.IsDir() {
		return &source.ScanError{Path: root, Err: fmt.Errorf("%w: not a directory", source.ErrRootUnavailable)}
	}
	return nil
}
