package auth

import (
	"slices"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/token"
	"github.com/jrsteele09/go-expense-tracker/users"
)

// CheckRoles decides whether claims satisfy a route's role requirement.
// An empty requirement admits any authenticated caller.
func CheckRoles(claims *token.Claims, required []users.Role) error {
	if claims == nil {
		return ErrMissingIdentity
	}
	if len(required) == 0 || slices.Contains(required, claims.Role) {
		return nil
	}
	return errors.Forbidden(msgInsufficientPermission)
}
