// Package config loads the server configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Security
	Stores
}

// New reads .env (if present) and the environment, applies defaults and validates the result.
// Environment variables override values from .env.
func New() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	setDefaults(v)

	c := &mainConfig{
		EnvVars:  loadEnvVars(v),
		Cors:     loadCors(v),
		Tokens:   loadTokens(v),
		Security: loadSecurity(v),
		Stores:   loadStores(v),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(portEnvVar, "4000")
	v.SetDefault(appNameEnvVar, "Expense Tracker")
	v.SetDefault(envEnvVar, "DEV")
	v.SetDefault(logLevelEnvVar, "info")
	v.SetDefault(corsOriginEnvVar, "http://localhost:3000")
	v.SetDefault(jwtIssuerEnvVar, "expense-tracker")
	v.SetDefault(accessTTLEnvVar, "24h")
	v.SetDefault(refreshTTLEnvVar, "168h")
	v.SetDefault(bcryptCostEnvVar, 10)
	v.SetDefault(openAdminRegEnvVar, false)
	v.SetDefault(adminNameEnvVar, "Administrator")
	v.SetDefault(maxBodyBytesEnvVar, 10<<20)
	v.SetDefault(sessionStoreEnvVar, SessionStoreMemory)
	v.SetDefault(runMigrationsEnvVar, true)
}

func (c *mainConfig) validate() error {
	if strings.TrimSpace(c.jwtSecret) == "" {
		return fmt.Errorf("config: %s must be set", jwtSecretEnvVar)
	}
	if c.accessTTL <= 0 || c.refreshTTL <= 0 {
		return fmt.Errorf("config: %s and %s must be positive durations", accessTTLEnvVar, refreshTTLEnvVar)
	}
	if c.bcryptCost < 4 || c.bcryptCost > 31 {
		return fmt.Errorf("config: %s must be between 4 and 31", bcryptCostEnvVar)
	}
	switch c.sessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.redisURL == "" {
			return fmt.Errorf("config: %s=%s requires %s", sessionStoreEnvVar, SessionStoreRedis, redisURLEnvVar)
		}
	case SessionStorePostgres:
		if c.databaseURL == "" {
			return fmt.Errorf("config: %s=%s requires %s", sessionStoreEnvVar, SessionStorePostgres, databaseURLEnvVar)
		}
	default:
		return fmt.Errorf("config: unknown %s %q", sessionStoreEnvVar, c.sessionStore)
	}
	return nil
}
