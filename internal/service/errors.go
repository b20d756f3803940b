package service

import "errors"

// Sentinel errors for the API layer to map onto HTTP status codes. Storage
// failures are returned as-is (wrapped with %w) and fall through to the
// internal-error path; the service never retries them.
var (
	// ErrInvalidInput marks malformed client input: unknown domains,
	// negative amounts, references to users outside the group.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing group or user.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an operation by a non-member of the group.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks a uniqueness violation, e.g. signing up an email
	// that already exists.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks failed credential checks.
	ErrUnauthorized = errors.New("unauthorized")
)
