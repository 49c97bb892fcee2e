package store

import "errors"

// Error taxonomy shared by both data-layer implementations. Controllers map
// these to HTTP statuses; everything else is wrapped and surfaced as-is.
var (
	// ErrLoginRequired is returned by mutations attempted without an
	// active session.
	ErrLoginRequired = errors.New("login required")

	// ErrInvalidCredentials covers both password mismatch and an
	// unresolvable sign-in identifier.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateIdentity is a handle or email collision at sign-up or
	// profile update, enforced by the storage layer.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrOwnershipViolation is a mutation rejected by the row-level
	// ownership check. The backend does not distinguish "not found" from
	// "not yours", so neither do we.
	ErrOwnershipViolation = errors.New("not found or not owned by caller")

	// ErrBackendUnavailable wraps network or configuration failures
	// reaching the hosted backend.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmptyPost rejects a post with no media and no caption before any
	// backend work happens.
	ErrEmptyPost = errors.New("post needs a caption or at least one file")
)
