package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	portEnvVar     = "PORT"
	appNameEnvVar  = "APP_NAME"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct {
	port     string
	appName  string
	env      string
	logLevel string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars(v *viper.Viper) EnvVars {
	return EnvVars{
		port:     v.GetString(portEnvVar),
		appName:  v.GetString(appNameEnvVar),
		env:      v.GetString(envEnvVar),
		logLevel: v.GetString(logLevelEnvVar),
	}
}

// GetPort returns the listen address, e.g. ":4000"
func (e EnvVars) GetPort() string {
	port := e.port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

func (e EnvVars) GetEnv() string {
	if e.env == "" {
		return "DEV"
	}
	return e.env
}

// IsProduction controls the Secure flag on auth cookies
func (e EnvVars) IsProduction() bool {
	return strings.EqualFold(e.env, "production") || strings.EqualFold(e.env, "PROD")
}

func (e EnvVars) GetLogLevel() string {
	return e.logLevel
}
