// Package errors provides error handling for applyd.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Sentinel errors for the pipeline's error taxonomy
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrQuotaExceeded) {
//	    // defer the job, not a failure
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the application pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap them with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = New("not found")

	// ErrQuotaExceeded indicates the daily submission limit is reached.
	// This is a scheduling deferral, not a failure: the job is retried on
	// the next pipeline run.
	ErrQuotaExceeded = New("daily submission quota exceeded")

	// ErrDuplicateSubmission indicates a successful application already
	// exists for the job. Callers treat this as success, never as an error
	// surfaced to the batch.
	ErrDuplicateSubmission = New("successful application already recorded")

	// ErrReferentialIntegrity indicates a store invariant is broken, e.g. a
	// follow-up referencing a nonexistent application. Always a bug or data
	// corruption; the only error class that halts a pipeline run.
	ErrReferentialIntegrity = New("referential integrity violation")
)

// IsQuotaExceeded checks if an error is or wraps ErrQuotaExceeded
func IsQuotaExceeded(err error) bool {
	return err != nil && Is(err, ErrQuotaExceeded)
}

// IsDuplicateSubmission checks if an error is or wraps ErrDuplicateSubmission
func IsDuplicateSubmission(err error) bool {
	return err != nil && Is(err, ErrDuplicateSubmission)
}

// IsReferential checks if an error is or wraps ErrReferentialIntegrity
func IsReferential(err error) bool {
	return err != nil && Is(err, ErrReferentialIntegrity)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
