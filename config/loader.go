package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFiles are the file names searched for when no configuration
// path is given, in priority order. The last entry is the location used by
// projects that keep their tooling under tools/.
var ProjectConfigFiles = []string{
	"semtrace.json",
	"semtrace.yaml",
	"semtrace.yml",
	filepath.Join("tools", "project-config.json"),
}

// Loader resolves and loads project configuration.
type Loader struct {
	logger *slog.Logger
	// startDir overrides the working directory for discovery (tests).
	startDir string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Find returns path when it is non-empty, otherwise the first project
// configuration file found in the working directory or its parents.
func (l *Loader) Find(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	dir := l.startDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}

	for {
		for _, name := range ProjectConfigFiles {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				l.logger.Debug("Found project config", slog.String("path", candidate))
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no project config found (looked for %v)", ProjectConfigFiles)
}

// Load finds, reads and validates the project configuration.
func (l *Loader) Load(path string) (*Config, string, error) {
	resolved, err := l.Find(path)
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadFromFile(resolved)
	if err != nil {
		return nil, resolved, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, fmt.Errorf("invalid configuration %s: %w", resolved, err)
	}

	l.logger.Debug("Loaded project config",
		slog.String("path", resolved),
		slog.String("project", cfg.ProjectName),
		slog.Int("generators", cfg.CodeGenerators.Len()))
	return cfg, resolved, nil
}
