// Package errors provides foundational, type-safe error primitives used across refdocs.
//
// This package contains classified error types and helpers for consistent error
// reporting, including a fluent builder API for constructing ClassifiedError values
// with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, not_found, collision, render, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryNotFound, "symbol not found").
//		Fatal().
//		WithContext("symbol", "Run").
//		WithContext("namespace", "apis.public").
//		Build()
package errors
