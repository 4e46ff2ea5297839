package framework

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors wrapped by LookupError.
var (
	ErrUnknownGenerator = errors.New("unknown generator")
	ErrUnknownTemplate  = errors.New("unknown template")
)

// LookupKind names what a failed lookup was searching for.
type LookupKind string

// Lookup kinds.
const (
	LookupGenerator LookupKind = "generator"
	LookupTemplate  LookupKind = "template"
)

// LookupError reports a generator or template name that is not configured.
// It carries the requested name and the names that are available so the
// caller can correct the request.
type LookupError struct {
	Kind      LookupKind
	Requested string
	Available []string
	// Generator is the generator being resolved when Kind is LookupTemplate.
	Generator string
}

func (e *LookupError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	if e.Kind == LookupTemplate && e.Generator != "" {
		return fmt.Sprintf("generator %q uses unknown template %q (available: %s)", e.Generator, e.Requested, available)
	}
	return fmt.Sprintf("no %s configured for %q (available: %s)", e.Kind, e.Requested, available)
}

// Unwrap returns the sentinel for the lookup kind.
func (e *LookupError) Unwrap() error {
	if e.Kind == LookupTemplate {
		return ErrUnknownTemplate
	}
	return ErrUnknownGenerator
}
