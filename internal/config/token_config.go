package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	jwtSecretEnvVar  = "JWT_SECRET_KEY"
	jwtIssuerEnvVar  = "JWT_ISSUER"
	accessTTLEnvVar  = "JWT_ACCESS_TTL"
	refreshTTLEnvVar = "JWT_REFRESH_TTL"
)

type TokenConfig interface {
	// GetJWTSecret must be stable across restarts for issued tokens to stay valid
	GetJWTSecret() string
	GetJWTIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type Tokens struct {
	jwtSecret  string
	jwtIssuer  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

var _ TokenConfig = Tokens{}

func loadTokens(v *viper.Viper) Tokens {
	return Tokens{
		jwtSecret:  v.GetString(jwtSecretEnvVar),
		jwtIssuer:  v.GetString(jwtIssuerEnvVar),
		accessTTL:  v.GetDuration(accessTTLEnvVar),
		refreshTTL: v.GetDuration(refreshTTLEnvVar),
	}
}

func (t Tokens) GetJWTSecret() string {
	return t.jwtSecret
}

func (t Tokens) GetJWTIssuer() string {
	return t.jwtIssuer
}

func (t Tokens) GetAccessTokenTTL() time.Duration {
	return t.accessTTL
}

func (t Tokens) GetRefreshTokenTTL() time.Duration {
	return t.refreshTTL
}
