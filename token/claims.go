package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/users"
)

// Use distinguishes access tokens from refresh tokens so one cannot stand in for the other
type Use string

const (
	UseAccess  Use = "access"
	UseRefresh Use = "refresh"
)

// Verification failures. All of them wrap errors.ErrInvalidToken.
var (
	ErrExpired      = fmt.Errorf("%w: expired", apperrors.ErrInvalidToken)
	ErrMalformed    = fmt.Errorf("%w: malformed", apperrors.ErrInvalidToken)
	ErrBadSignature = fmt.Errorf("%w: bad signature", apperrors.ErrInvalidToken)
)

// Claims is the identity projection carried by access and refresh tokens.
// Role is captured at issuance and is not refreshed until a new token is issued.
type Claims struct {
	UserID int64      `json:"id"`
	Email  string     `json:"email"`
	Role   users.Role `json:"role"`
	Use    Use        `json:"use"`
	jwt.RegisteredClaims
}

// ClaimsFor projects a user into a claim set
func ClaimsFor(u *users.User, use Use) Claims {
	return Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Use:    use,
	}
}
