package query

import (
	"errors"
	"fmt"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// Sentinels for errors.Is classification.
var (
	// ErrResolution marks references that do not match the schema.
	ErrResolution = errors.New("resolution error")

	// ErrUnsupported marks functions or operators a backend cannot express.
	ErrUnsupported = errors.New("unsupported operator")

	// ErrInvalid marks malformed arguments: bad paging values, wrong arity,
	// a column where a value is required.
	ErrInvalid = errors.New("invalid query")
)

// ResolutionError names a collection, property or relationship reference
// that does not exist.
type ResolutionError struct {
	Collection string
	Reference  string
	Message    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q in %s: %s", e.Reference, e.Collection, e.Message)
}

// Is matches ErrResolution.
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// UnsupportedError reports a function a backend cannot express.
// Dialect is empty when no backend knows the function.
type UnsupportedError struct {
	Dialect  string
	Function string
	Message  string
}

func (e *UnsupportedError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("%s: %s not supported: %s", e.Dialect, e.Function, e.Message)
	}
	return fmt.Sprintf("%s not supported: %s", e.Function, e.Message)
}

// Is matches ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// InvalidError reports a malformed argument to a known function.
type InvalidError struct {
	Function string
	Value    string
	Message  string
}

func (e *InvalidError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s(%s): %s", e.Function, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

// Is matches ErrInvalid.
func (e *InvalidError) Is(target error) bool { return target == ErrInvalid }

// IsResolution reports whether err is a resolution error.
func IsResolution(err error) bool { return errors.Is(err, ErrResolution) }

// IsUnsupported reports whether err is an unsupported-operator error.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

// IsInvalid reports whether err is an invalid-argument error.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }

// Error categories returned by Category.
const (
	CategoryLexical     = "lexical"
	CategoryResolution  = "resolution"
	CategoryUnsupported = "unsupported"
	CategoryCasting     = "casting"
	CategoryInvalid     = "invalid"
)

// Category names the class of a compile error, or "" for anything else.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rql.ErrLexical):
		return CategoryLexical
	case errors.Is(err, ErrResolution):
		return CategoryResolution
	case errors.Is(err, ErrUnsupported):
		return CategoryUnsupported
	case errors.Is(err, schema.ErrCasting):
		return CategoryCasting
	case errors.Is(err, ErrInvalid):
		return CategoryInvalid
	}
	return ""
}

func invalid(fn, value, format string, args ...any) error {
	return &InvalidError{Function: fn, Value: value, Message: fmt.Sprintf(format, args...)}
}
