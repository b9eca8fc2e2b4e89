package server

import (
	"net/http"

	"github.com/jrsteele09/go-expense-tracker/auth"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
)

// accessTokenResponse is returned by login and refresh. The refresh token only travels in its cookie.
type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// RegisterHandler creates a MEMBER account
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		user, err := s.services.Auth.Register(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// RegisterAdminHandler creates an ADMIN account
func (s *Server) RegisterAdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		user, err := s.services.Auth.RegisterAdmin(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.LoginParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		pair, err := s.services.Auth.Login(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		s.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
		writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
	}
}

// RefreshHandler rotates the session using the refreshToken cookie
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieRefreshToken)
		if err != nil || cookie.Value == "" {
			writeError(w, errors.Unauthorized("Refresh token not found"))
			return
		}
		pair, err := s.services.Auth.Refresh(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, err)
			return
		}
		s.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
		writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		var params auth.ChangePasswordParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		if err := s.services.Auth.ChangePassword(r.Context(), claims.UserID, params); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
	}
}

// LogoutHandler ends the session and clears both auth cookies
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if err := s.services.Auth.Logout(r.Context(), claims.UserID); err != nil {
			writeError(w, err)
			return
		}
		s.clearAuthCookies(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		user, err := s.services.Auth.Me(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

