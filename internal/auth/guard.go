package auth

import (
	"context"

	"github.com/wallowawildlife/ww-backend/internal/utils"
)

// RequireAuthenticated returns the current identity id from the request
// context, or ErrUnauthenticated when the session is anonymous.
func RequireAuthenticated(ctx context.Context) (uint, error) {
	id, ok := utils.GetIdentityFromContext(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

// RequireOwner gates mutation of an owned record. The comparison is exact
// value equality on the typed ids; anything else is ErrForbidden.
func RequireOwner(ownerID, identityID uint) error {
	if ownerID != identityID {
		return ErrForbidden
	}
	return nil
}
