package errors

import "errors"

// Sentinel error kinds for the flattening pipeline. These are wrapped by
// classified errors so callers can use errors.Is regardless of how much
// context has been layered on top.
var (
	// ErrIncludeNotFound indicates a local include target missing from storage.
	ErrIncludeNotFound = errors.New("include target not found")

	// ErrUnsupportedExtension indicates a root or included file that is
	// neither Markdown nor HTML where the distinction is load-bearing.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrParse indicates markup the underlying parser rejected.
	ErrParse = errors.New("markup parse error")

	// ErrIncludeCycle indicates a file that transitively includes itself.
	ErrIncludeCycle = errors.New("include cycle detected")
)

// Is re-exports errors.Is so callers inside the module do not need to import
// both this package and the standard library one.
func Is(err, target error) bool { return errors.Is(err, target) }
