// Package extract pulls specification passages out of the documentation tree
// so generated code can cite the text it was derived from.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/semtrace/source"
)

// Config holds windowing configuration.
type Config struct {
	// Before is the number of lines kept above the matching line.
	Before int

	// After is the number of lines kept below the matching line.
	After int

	// Pattern selects the documents searched (default *.md).
	Pattern string
}

// DefaultConfig returns the standard window of 2 lines above and 5 below.
func DefaultConfig() Config {
	return Config{
		Before:  2,
		After:   5,
		Pattern: source.DefaultPattern,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Before < 0 {
		return fmt.Errorf("Before must not be negative, got %d", c.Before)
	}
	if c.After < 0 {
		return fmt.Errorf("After must not be negative, got %d", c.After)
	}
	return nil
}

// Extractor finds passages mentioning traceability identifiers.
type Extractor struct {
	config Config
	logger *slog.Logger
}

// New creates a new Extractor with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pattern == "" {
		cfg.Pattern = source.DefaultPattern
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{config: cfg, logger: logger}, nil
}

// NewDefault creates an Extractor with default configuration.
func NewDefault() *Extractor {
	e, err := New(DefaultConfig(), nil)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract returns one window per (document, id) pair where id occurs in the
// document, ordered by document and then by the order of ids. Only the first
// line mentioning an id contributes. Identifiers are matched as literal
// substrings, so an empty id matches the first line of every non-empty
// document; ids that occur nowhere contribute nothing.
func (e *Extractor) Extract(root string, ids []string) ([]string, error) {
	var windows []string
	if len(ids) == 0 {
		return windows, nil
	}

	err := source.Walk(root, e.config.Pattern, func(doc *source.Document) error {
		var lines []string
		for _, id := range ids {
			if !strings.Contains(doc.Content, id) {
				continue
			}
			if lines == nil {
				lines = doc.Lines()
			}
			if w, ok := e.window(lines, id); ok {
				windows = append(windows, w)
				e.logger.Debug("Extracted specification window",
					slog.String("id", id),
					slog.String("file", doc.Filename))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return windows, nil
}

// window joins the lines surrounding the first line containing id.
func (e *Extractor) window(lines []string, id string) (string, bool) {
	for i, line := range lines {
		if !strings.Contains(line, id) {
			continue
		}
		start := max(0, i-e.config.Before)
		end := min(len(lines), i+e.config.After+1)
		return strings.Join(lines[start:end], "\n"), true
	}
	return "", false
}
