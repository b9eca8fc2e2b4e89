package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-expense-tracker/auth"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/token"
	"github.com/jrsteele09/go-expense-tracker/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims stored by RequireAuth, or nil
func ClaimsFromContext(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims
}

// bearerToken returns the access token from the accessToken cookie, falling back
// to the Authorization header. The cookie wins when both are present.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieAccessToken); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth verifies the access token and stores its claims on the request context.
// The session registry is not consulted, so a logged out user's access token
// keeps working until it expires.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, errors.Unauthorized("Unauthorized"))
				return
			}

			claims, err := s.services.Codec.Verify(raw)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("access token rejected")
				writeError(w, errors.Unauthorized("Unauthorized", err))
				return
			}
			if claims.Use != token.UseAccess {
				writeError(w, errors.Unauthorized("Unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRoles must be chained after RequireAuth
func (s *Server) RequireRoles(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := auth.CheckRoles(ClaimsFromContext(r.Context()), roles); err != nil {
				if errors.Is(err, auth.ErrMissingIdentity) {
					log.Error().Str("route", r.Pattern).Msg("role check ran without an authenticated identity")
				}
				writeError(w, err)
				return
			}
			next(w, r)
		}
	}
}
