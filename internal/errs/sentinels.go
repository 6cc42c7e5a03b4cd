// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrUnauthorized indicates a bad/missing API key, session or request signature.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller that does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates an allow-list, schema or size-ceiling violation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested integration record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the per-client request window is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrDecryption indicates tampered, corrupt or wrong-key ciphertext.
	// Kept distinct from ErrPersistence so operators can tell key-rotation
	// issues from storage outages.
	ErrDecryption = errors.New("decryption failed")

	// ErrPersistence indicates a storage collaborator failure; safe to retry.
	ErrPersistence = errors.New("persistence failure")
)
