package utils

import (
	"context"
)

type contextKey string

const (
	ContextIdentityIDKey contextKey = "identityID"
	ContextSessionIDKey  contextKey = "sessionID"
)

// GetIdentityFromContext returns the authenticated identity id bound to the
// request context by the session middleware. ok is false for anonymous
// requests.
func GetIdentityFromContext(ctx context.Context) (uint, bool) {
	id := ctx.Value(ContextIdentityIDKey)
	idVal, ok := id.(uint)
	return idVal, ok
}

// WithIdentity returns a context carrying the authenticated identity id.
func WithIdentity(ctx context.Context, identityID uint) context.Context {
	return context.WithValue(ctx, ContextIdentityIDKey, identityID)
}

// GetSessionIDFromContext returns the session id the session middleware
// resolved for this request, so handlers reuse it instead of minting a
// second session.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id := ctx.Value(ContextSessionIDKey)
	idStr, ok := id.(string)
	return idStr, ok
}

// WithSessionID returns a context carrying the resolved session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextSessionIDKey, sessionID)
}
