package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-expense-tracker/auth"
	"github.com/jrsteele09/go-expense-tracker/categories"
	"github.com/jrsteele09/go-expense-tracker/expenses"
	"github.com/jrsteele09/go-expense-tracker/internal/config"
	"github.com/jrsteele09/go-expense-tracker/internal/metrics"
	"github.com/jrsteele09/go-expense-tracker/token"
	"github.com/jrsteele09/go-expense-tracker/users"
	"github.com/rs/zerolog/log"
)

// Services are the domain services the handlers call into
type Services struct {
	Auth       *auth.Service
	Categories *categories.Service
	Expenses   *expenses.Service
	Codec      *token.Codec // Verifies access tokens for the request authenticator
	Users      users.UserRepo
	Hasher     users.PasswordHasher
}

func (s Services) validate() error {
	switch {
	case s.Auth == nil:
		return errors.New("auth service is required")
	case s.Categories == nil:
		return errors.New("categories service is required")
	case s.Expenses == nil:
		return errors.New("expenses service is required")
	case s.Codec == nil:
		return errors.New("token codec is required")
	case s.Users == nil:
		return errors.New("users repo is required")
	case s.Hasher == nil:
		return errors.New("password hasher is required")
	}
	return nil
}

// HealthCheck is a dependency reported by GET /health
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Server struct {
	env          string // Environment (e.g. "DEV", "production")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	services     Services
	metrics      *metrics.Metrics
	healthChecks []HealthCheck
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithMetrics records request metrics and exposes GET /metrics
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealthChecks sets the dependencies pinged by GET /health
func WithHealthChecks(checks ...HealthCheck) ServerOption {
	return func(s *Server) {
		s.healthChecks = append(s.healthChecks, checks...)
	}
}

func New(ctx context.Context, config config.Config, services Services, options ...ServerOption) (*Server, error) {
	if err := services.validate(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		services: services,
	}
	for _, opt := range options {
		opt(s)
	}

	// Bootstrap: ensure the configured admin exists
	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
