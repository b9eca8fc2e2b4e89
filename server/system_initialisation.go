package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the bootstrap ADMIN named by ADMIN_EMAIL if no user holds that email yet.
// Without ADMIN_EMAIL nothing is created and admins can only come from register-admin.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := users.NormalizeEmail(s.config.GetAdminEmail())
	if email == "" {
		log.Debug().Msg("ADMIN_EMAIL not set, skipping admin bootstrap")
		return nil
	}

	generatedPassword, err := s.createAdmin(ctx, email, s.config.GetAdminName(), s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	if generatedPassword != "" {
		log.Warn().
			Str("email", email).
			Str("password", generatedPassword).
			Msg("bootstrap admin created with a generated password, change it after first login")
	}
	return nil
}

// createAdmin returns the generated password when one had to be made up, empty otherwise
func (s *Server) createAdmin(ctx context.Context, email, name, password string) (generatedPassword string, err error) {
	existing, err := s.services.Users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			log.Warn().Str("email", email).Msg("bootstrap admin email belongs to a non-admin user")
		}
		return "", nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return "", fmt.Errorf("[server createAdmin] failed to look up admin: %w", err)
	}

	if password == "" {
		// Generate a secure random password
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	} else if err := users.ValidatePasswordStrength(password); err != nil {
		return "", fmt.Errorf("[server createAdmin] ADMIN_PASSWORD: %w", err)
	}

	passwordHash, err := s.services.Hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	admin := &users.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         users.RoleAdmin,
	}
	if err := s.services.Users.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}

	log.Info().Int64("userId", admin.ID).Str("email", email).Msg("bootstrap admin created")
	return generatedPassword, nil
}
