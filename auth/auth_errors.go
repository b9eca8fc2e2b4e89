package auth

import "errors"

// Client facing messages. Login failures share one message so a caller cannot
// tell an unknown email from a wrong password.
const (
	msgInvalidCredentials     = "Invalid credentials"
	msgInvalidRefreshToken    = "Invalid refresh token"
	msgEmailExists            = "Email already exists"
	msgUserNotFound           = "User not found"
	msgCurrentPasswordWrong   = "Current password is incorrect"
	msgPasswordUnchanged      = "New password must be different from current password"
	msgPasswordsDontMatch     = "New password and confirmation do not match"
	msgInsufficientPermission = "Insufficient permissions"
)

// ErrMissingIdentity means a role check ran on a request that was never authenticated.
// It is a wiring mistake, not a client error.
var ErrMissingIdentity = errors.New("role check without an authenticated identity")
