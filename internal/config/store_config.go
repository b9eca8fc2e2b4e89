package config

import "github.com/spf13/viper"

const (
	databaseURLEnvVar   = "DATABASE_URL"
	redisURLEnvVar      = "REDIS_URL"
	sessionStoreEnvVar  = "SESSION_STORE"
	runMigrationsEnvVar = "RUN_MIGRATIONS"
)

// Session store backends
const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

type StoreConfig interface {
	// GetDatabaseURL is empty when the in-memory stores should be used
	GetDatabaseURL() string
	GetRedisURL() string
	GetSessionStore() string
	GetRunMigrations() bool
}

type Stores struct {
	databaseURL   string
	redisURL      string
	sessionStore  string
	runMigrations bool
}

var _ StoreConfig = Stores{}

func loadStores(v *viper.Viper) Stores {
	return Stores{
		databaseURL:   v.GetString(databaseURLEnvVar),
		redisURL:      v.GetString(redisURLEnvVar),
		sessionStore:  v.GetString(sessionStoreEnvVar),
		runMigrations: v.GetBool(runMigrationsEnvVar),
	}
}

func (s Stores) GetDatabaseURL() string {
	return s.databaseURL
}

func (s Stores) GetRedisURL() string {
	return s.redisURL
}

func (s Stores) GetSessionStore() string {
	return s.sessionStore
}

func (s Stores) GetRunMigrations() bool {
	return s.runMigrations
}
