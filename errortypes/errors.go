package errortypes

import (
	"errors"
	"fmt"
)

// ErrNoTemplateSource is matched by the ConfigurationError returned when no
// template source location is configured.
var ErrNoTemplateSource = errors.New("no template source location configured")

// ConfigurationError reports a missing or invalid setting.  It is raised to
// the caller that triggered the work and never leaves partial state behind.
type ConfigurationError struct {
	Setting string // e.g. "templates.location"
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration %q: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// CompilationError reports that one view could not be compiled.  It is fatal
// to the whole build attempt.
type CompilationError struct {
	Path   string // logical path of the offending view
	Origin string // provider that contributed the view
	Err    error  // underlying diagnostic
}

func (e *CompilationError) Error() string {
	if e.Origin == "" {
		return fmt.Sprintf("compile view %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("compile view %q (from %s): %v", e.Path, e.Origin, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsCompilation reports whether err is, or wraps, a CompilationError.
func IsCompilation(err error) bool {
	var ce *CompilationError
	return errors.As(err, &ce)
}

// RenderError reports a failure while executing a compiled view, located at
// the statement that failed.
type RenderError struct {
	file string
	line int
	col  int
	err  error
}

var _ ErrFilePos = &RenderError{}

// NewRenderError wraps err with the view position it occurred at.
func NewRenderError(file string, line, col int, err error) *RenderError {
	return &RenderError{file, line, col, err}
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s:%d:%d: %v", e.file, e.line, e.col, e.err)
}

func (e *RenderError) Unwrap() error {
	return e.err
}

func (e *RenderError) File() string {
	return e.file
}

func (e *RenderError) Line() int {
	return e.line
}

func (e *RenderError) Col() int {
	return e.col
}
