package auth

// RegisterParameters is the body of POST /auth/register and POST /auth/register-admin
type RegisterParameters struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginParameters is the body of POST /auth/login
type LoginParameters struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordParameters is the body of PATCH /auth/change-password
type ChangePasswordParameters struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// TokenPair is what a successful login or refresh hands back to the transport layer
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
