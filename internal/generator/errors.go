// Package generator turns a GenerationRequest into a packaged Flutter project.
// It copies the template tree into a per-request working copy, rewrites the
// files named by the plan, zips the result and removes the working copy.
package generator

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for generation failures. Callers use errors.Is to tell
// user mistakes, broken templates and environment failures apart.
var (
	// ErrValidation indicates the request is missing required fields or a
	// field has the wrong shape. Nothing was written to disk.
	ErrValidation = errors.New("generator: invalid request")

	// ErrTemplateIntegrity indicates the template project does not honor the
	// marker or placeholder contract. This is a packaging defect.
	ErrTemplateIntegrity = errors.New("generator: template integrity violation")

	// ErrIO indicates a filesystem copy, read, write or archive step failed.
	// The caller may retry.
	ErrIO = errors.New("generator: filesystem failure")
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error: field %q: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors collects every rejected field of a request.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation: no errors"
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// IntegrityError reports a template file that breaks the rewrite contract.
type IntegrityError struct {
	File    string
	Marker  string
	Message string
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("template integrity")
	if e.File != "" {
		b.WriteString(": " + e.File)
	}
	if e.Marker != "" {
		fmt.Fprintf(&b, ": marker %q", e.Marker)
	}
	b.WriteString(": " + e.Message)
	return b.String()
}

func (e *IntegrityError) Unwrap() error {
	return ErrTemplateIntegrity
}

// withFile attaches the file name to integrity errors raised by the
// file-agnostic text transforms.
func withFile(err error, file string) error {
	var ie *IntegrityError
	if errors.As(err, &ie) && ie.File == "" {
		copied := *ie
		copied.File = file
		return &copied
	}
	return err
}

// ioError wraps a filesystem failure so it matches both ErrIO and the
// underlying error.
func ioError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrIO, op, path, err)
}
