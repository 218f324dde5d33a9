package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCatalog is returned when an engine is built without reference data.
var ErrNoCatalog = errors.New("catalog: no reference data loaded")

// ValidationError locates one problem by its YAML field path,
// e.g. "combinations[2].option.allowed[0]".
type ValidationError struct {
	FieldPath string
	Message   string
}

func (e ValidationError) Error() string {
	return e.FieldPath + ": " + e.Message
}

// ValidationErrors collects every problem in a document so that one load
// reports them all.
type ValidationErrors struct {
	Errors []ValidationError
}

func (ve *ValidationErrors) Add(fieldPath, message string) {
	ve.Errors = append(ve.Errors, ValidationError{FieldPath: fieldPath, Message: message})
}

func (ve *ValidationErrors) Addf(fieldPath, format string, args ...any) {
	ve.Add(fieldPath, fmt.Sprintf(format, args...))
}

func (ve *ValidationErrors) HasErrors() bool {
	return ve != nil && len(ve.Errors) > 0
}

// Error renders a count followed by one indented problem per line.
func (ve *ValidationErrors) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d catalog problem(s)", len(ve.Errors))
	for _, e := range ve.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual problems to errors.As.
func (ve *ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		out = append(out, e)
	}
	return out
}
