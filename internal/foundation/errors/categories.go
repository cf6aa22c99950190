package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryInclude represents include-resolution errors.
	CategoryInclude ErrorCategory = "include"
	CategoryParse   ErrorCategory = "parse"
	CategoryRender  ErrorCategory = "render"

	// CategoryFileSystem represents storage access errors.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryState      ErrorCategory = "state"
	CategoryGit        ErrorCategory = "git"
	CategoryEvents     ErrorCategory = "events"

	// CategoryInternal is the fallback for unclassified failures.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity represents the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext carries structured key/value detail attached to an error.
type ErrorContext map[string]any

// Set returns a copy of the context with key set to value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Merge returns a copy of the context with all entries of other applied on top.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
