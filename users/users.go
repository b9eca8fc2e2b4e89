package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Role is the single role held by a user
type Role string

const (
	RoleAdmin  Role = "ADMIN"  // Can manage categories and see every expense
	RoleMember Role = "MEMBER" // Default role for self registered users
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID           int64     `json:"id"`        // Identifier assigned by the store
	Email        string    `json:"email"`     // Unique, stored lower case
	Name         string    `json:"name"`      // Display name
	PasswordHash string    `json:"-"`         // Hashed version of the user's password - never serialize
	Role         Role      `json:"role"`      // ADMIN or MEMBER
	CreatedAt    time.Time `json:"createdAt"` // Date and time when the user registered
	UpdatedAt    time.Time `json:"updatedAt"` // Last profile or password change
}

// Sanitized returns a copy of the user with the password hash removed
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail trims and lower cases an email address so lookups are case insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt only uses the first 72 bytes and x/crypto rejects longer input
	passwordSpecials  = "@$!%*?&"
)

// ValidatePasswordStrength checks if password meets security requirements:
// - Between 8 and 72 bytes long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one of @$!%*?&
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordLength)
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case strings.ContainsRune(passwordSpecials, char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return fmt.Errorf("password must contain at least one lowercase letter, one uppercase letter, one number, and one special character")
	}
	return nil
}
