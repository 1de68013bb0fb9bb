package domain

import "errors"

// Domain errors. Handlers map these to HTTP status codes; nothing below the
// handler layer knows about HTTP.
var (
	// ErrNotFound is returned when a record does not exist among the
	// caller's own rows. The same error covers "row absent" and "row owned
	// by someone else" so that other users' data is never observable.
	ErrNotFound = errors.New("application not found")

	// ErrDuplicateEmail is returned when registering an email that is
	// already taken. Email comparison is exact (case-sensitive).
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidStatus is returned for a status value outside the allowed
	// enumeration, on create, update and list filtering alike.
	ErrInvalidStatus = errors.New("invalid status, allowed: applied, interview, offer, rejected")

	// ErrInvalidCredentials is returned for any login failure. Unknown
	// email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrInvalidToken covers every token verification failure: malformed
	// encoding, signature mismatch, unexpected algorithm, missing subject
	// and expiry. Collapsing them avoids an oracle for attackers.
	ErrInvalidToken = errors.New("invalid or expired token")
)
