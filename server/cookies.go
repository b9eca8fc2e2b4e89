package server

import (
	"net/http"
	"time"
)

// tokenCookie builds an auth cookie. Secure is only set in production so the
// client can be developed over plain http.
func (s *Server) tokenCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *Server) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, s.tokenCookie(CookieAccessToken, accessToken, s.services.Auth.AccessTTL()))
	http.SetCookie(w, s.tokenCookie(CookieRefreshToken, refreshToken, s.services.Auth.RefreshTTL()))
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		c := s.tokenCookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
