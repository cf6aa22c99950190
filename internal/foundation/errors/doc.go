// Package errors provides foundational, type-safe error primitives used across DocWeave.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, include, parse, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - Sentinel kinds for the flattening pipeline (ErrIncludeNotFound, ...)
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryInclude, "resolve failed").
//		WithSeverity(errors.SeverityError).
//		WithContext("src", src).
//		Build()
package errors
