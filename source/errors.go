package source

import (
	"errors"
	"fmt"
)

// ErrRootUnavailable reports a documentation root that is missing, is not a
// directory, or cannot be listed.
var ErrRootUnavailable = errors.New("documentation root unavailable")

// ScanError is returned when part of the documentation tree cannot be read.
// A scan error is never a validation finding: callers must not treat the
// affected file as clean.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
