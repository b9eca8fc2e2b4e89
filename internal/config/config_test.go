package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-expense-tracker/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":4000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.False(t, c.IsProduction())
	require.Equal(t, 24*time.Hour, c.GetAccessTokenTTL())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenTTL())
	require.Equal(t, 10, c.GetBcryptCost())
	require.False(t, c.GetAllowOpenAdminRegistration())
	require.Equal(t, config.SessionStoreMemory, c.GetSessionStore())
	require.Equal(t, int64(10<<20), c.GetMaxBodyBytes())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("PORT", "8081")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("CORS_ORIGIN", "https://a.example.com, https://b.example.com/")
	t.Setenv("ALLOW_OPEN_ADMIN_REGISTRATION", "true")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8081", c.GetPort())
	require.True(t, c.IsProduction())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenTTL())
	require.True(t, c.GetAllowOpenAdminRegistration())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.Equal(t, "https://a.example.com, https://b.example.com", origins.String())
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET_KEY": ""}},
		{"bcrypt cost too low", map[string]string{"JWT_SECRET_KEY": "s", "BCRYPT_COST": "2"}},
		{"unknown session store", map[string]string{"JWT_SECRET_KEY": "s", "SESSION_STORE": "memcached"}},
		{"redis store without url", map[string]string{"JWT_SECRET_KEY": "s", "SESSION_STORE": "redis", "REDIS_URL": ""}},
		{"postgres store without url", map[string]string{"JWT_SECRET_KEY": "s", "SESSION_STORE": "postgres", "DATABASE_URL": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.New()
			require.Error(t, err)
		})
	}
}
