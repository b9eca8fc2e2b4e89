package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-expense-tracker/auth"
	"github.com/jrsteele09/go-expense-tracker/categories"
	categorypg "github.com/jrsteele09/go-expense-tracker/categories/postgres"
	fakecategoryrepo "github.com/jrsteele09/go-expense-tracker/categories/repofake"
	"github.com/jrsteele09/go-expense-tracker/expenses"
	expensepg "github.com/jrsteele09/go-expense-tracker/expenses/postgres"
	fakeexpenserepo "github.com/jrsteele09/go-expense-tracker/expenses/repofake"
	"github.com/jrsteele09/go-expense-tracker/internal/config"
	"github.com/jrsteele09/go-expense-tracker/internal/db"
	"github.com/jrsteele09/go-expense-tracker/internal/db/migrate"
	"github.com/jrsteele09/go-expense-tracker/internal/metrics"
	"github.com/jrsteele09/go-expense-tracker/sessions"
	sessionpg "github.com/jrsteele09/go-expense-tracker/sessions/postgres"
	"github.com/jrsteele09/go-expense-tracker/sessions/redisstore"
	"github.com/jrsteele09/go-expense-tracker/token"
	"github.com/jrsteele09/go-expense-tracker/users"
	userpg "github.com/jrsteele09/go-expense-tracker/users/postgres"
	fakeuserrepo "github.com/jrsteele09/go-expense-tracker/users/repofake"
	"github.com/rs/zerolog/log"
)

// Dependencies is everything built from config that the Server needs, plus the
// connections that must be closed on shutdown
type Dependencies struct {
	Services     Services
	HealthChecks []HealthCheck
	closers      []func() error
}

// Close releases database and Redis connections
func (d *Dependencies) Close() error {
	var firstErr error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type stores struct {
	users      users.UserRepo
	categories categories.Repo
	expenses   expenses.Repo
}

// NewDependencies opens the configured stores and builds the services. Without
// DATABASE_URL the in-memory stores are used and nothing survives a restart.
// m may be nil.
func NewDependencies(ctx context.Context, c config.Config, m *metrics.Metrics) (*Dependencies, error) {
	d := &Dependencies{}

	var (
		database *sql.DB
		st       stores
	)
	if dsn := c.GetDatabaseURL(); dsn != "" {
		if c.GetRunMigrations() {
			if err := migrate.Run(dsn, "up"); err != nil {
				return nil, fmt.Errorf("[NewDependencies] migrations: %w", err)
			}
		}
		var err error
		database, err = db.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("[NewDependencies] postgres: %w", err)
		}
		d.closers = append(d.closers, database.Close)
		d.HealthChecks = append(d.HealthChecks, HealthCheck{Name: "postgres", Ping: database.PingContext})
		if m != nil {
			m.RegisterDB(database, "postgres")
		}
		st = stores{
			users:      userpg.NewUserRepo(database),
			categories: categorypg.NewCategoryRepo(database),
			expenses:   expensepg.NewExpenseRepo(database),
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores")
		categoryRepo := fakecategoryrepo.NewFakeCategoryRepo()
		st = stores{
			users:      fakeuserrepo.NewFakeUserRepo(),
			categories: categoryRepo,
			expenses:   fakeexpenserepo.NewFakeExpenseRepo(categoryRepo),
		}
	}

	registry, err := d.sessionRegistry(ctx, c, database)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	services, err := newServices(c, st, registry, m)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Services = services
	return d, nil
}

func (d *Dependencies) sessionRegistry(ctx context.Context, c config.Config, database *sql.DB) (sessions.Registry, error) {
	switch c.GetSessionStore() {
	case config.SessionStoreRedis:
		registry, err := redisstore.Connect(ctx, c.GetRedisURL(), redisstore.WithTTL(c.GetRefreshTokenTTL()))
		if err != nil {
			return nil, fmt.Errorf("[NewDependencies] session store: %w", err)
		}
		d.closers = append(d.closers, registry.Close)
		d.HealthChecks = append(d.HealthChecks, HealthCheck{Name: "redis", Ping: registry.Ping})
		return registry, nil
	case config.SessionStorePostgres:
		if database == nil {
			return nil, fmt.Errorf("[NewDependencies] session store %q needs DATABASE_URL", config.SessionStorePostgres)
		}
		return sessionpg.NewRegistry(database), nil
	}
	return sessions.NewMemoryRegistry(), nil
}

func newServices(c config.Config, st stores, registry sessions.Registry, m *metrics.Metrics) (Services, error) {
	signer, err := token.NewHMACSigner(c.GetJWTSecret())
	if err != nil {
		return Services{}, fmt.Errorf("[NewDependencies] signer: %w", err)
	}
	codec, err := token.NewCodec(signer, token.WithIssuer(c.GetJWTIssuer()))
	if err != nil {
		return Services{}, fmt.Errorf("[NewDependencies] codec: %w", err)
	}
	hasher := users.NewBcryptHasher(c.GetBcryptCost())

	authOptions := []auth.ServiceOption{auth.WithTokenTTLs(c.GetAccessTokenTTL(), c.GetRefreshTokenTTL())}
	if m != nil {
		authOptions = append(authOptions, auth.WithRecorder(m))
	}
	authService, err := auth.NewService(auth.Repos{Users: st.users, Sessions: registry}, codec, hasher, authOptions...)
	if err != nil {
		return Services{}, fmt.Errorf("[NewDependencies] auth: %w", err)
	}

	// Categories ask the expense store whether a category is still referenced,
	// expenses ask the category service whether a category exists
	categoryService, err := categories.NewService(st.categories, st.expenses)
	if err != nil {
		return Services{}, fmt.Errorf("[NewDependencies] categories: %w", err)
	}
	expenseService, err := expenses.NewService(st.expenses, categoryService)
	if err != nil {
		return Services{}, fmt.Errorf("[NewDependencies] expenses: %w", err)
	}

	return Services{
		Auth:       authService,
		Categories: categoryService,
		Expenses:   expenseService,
		Codec:      codec,
		Users:      st.users,
		Hasher:     hasher,
	}, nil
}
