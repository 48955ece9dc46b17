package auth

import "errors"

// Request-scoped auth failures. Handlers map these to flash messages,
// redirects, or JSON error responses; none of them is fatal to the process.
var (
	// ErrMissingField is returned when a required form field is empty.
	ErrMissingField = errors.New("required field is missing")

	// ErrDuplicateIdentity is returned when registration collides with an
	// existing identity name.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrInvalidCredentials covers both unknown-name and wrong-password
	// failures. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIdentityNotFound is returned by store lookups that match nothing.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrInvalidState is returned when a login callback's anti-forgery token
	// does not match the one issued for this session, or when the token was
	// already consumed by an earlier callback.
	ErrInvalidState = errors.New("invalid or replayed state token")

	// ErrExternalAuthFailure is returned when the external identity provider
	// is unreachable, times out, or returns a malformed response.
	ErrExternalAuthFailure = errors.New("external authentication failed")

	// ErrClientMismatch is returned when the provider-issued access token was
	// minted for a different client than this application.
	ErrClientMismatch = errors.New("token audience does not match client")

	// ErrSubjectMismatch is returned when the introspected token subject does
	// not match the subject obtained in the code exchange.
	ErrSubjectMismatch = errors.New("token subject mismatch")

	// ErrUnauthenticated is returned when an operation requires a logged-in
	// identity and the session is anonymous.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the current identity does not own the
	// record it is trying to change.
	ErrForbidden = errors.New("operation not permitted for this identity")
)
