package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// List returns the documents directly under root whose names match pattern,
// in lexical order. Subdirectories are not descended into; a pattern
// containing a path separator is rejected so that scans stay flat.
func List(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid document pattern %q", pattern)
	}
	if filepath.Base(pattern) != pattern {
		return nil, fmt.Errorf("document pattern %q must not contain a directory", pattern)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, &ScanError{Path: root, Err: fmt.Errorf("%w: %w", ErrRootUnavailable, err)}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: root, Err: fmt.Errorf("%w: not a directory", ErrRootUnavailable)}
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, &ScanError{Path: root, Err: fmt.Errorf("%w: %w", ErrRootUnavailable, err)}
	}

	sort.Strings(matches)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	return paths, nil
}

// Read loads a single document.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScanError{Path: path, Err: err}
	}
	return &Document{
		Path:     path,
		Filename: filepath.Base(path),
		Content:  string(data),
	}, nil
}

// Walk lists the documents under root and calls fn for each one in order.
// Reading stops at the first unreadable document or the first error
// returned by fn.
func Walk(root, pattern string, fn func(*Document) error) error {
	paths, err := List(root, pattern)
	if err != nil {
		return err
	}
	for _, p := range paths {
		doc, err := Read(p)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether name resolves to an existing entry under root.
// A missing entry is (false, nil); any other stat failure is returned as a
// *ScanError so callers do not mistake it for absence.
func Exists(root, name string) (bool, error) {
	path := filepath.Join(root, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &ScanError{Path: path, Err: err}
	}
	return true, nil
}
