package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/jrsteele09/go-expense-tracker/internal/config"
	"github.com/jrsteele09/go-expense-tracker/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
	memberPass    = "Passw0rd!"
)

type testFixture struct {
	server  *Server
	deps    *Dependencies
	metrics *metrics.Metrics
}

// setupTestFixture builds a server on the in-memory stores. env overrides the defaults below.
func setupTestFixture(t *testing.T, env map[string]string, options ...ServerOption) *testFixture {
	t.Helper()
	defaults := map[string]string{
		"ENV":                           "test",
		"JWT_SECRET_KEY":                "test-secret-key-for-server-tests",
		"BCRYPT_COST":                   "4",
		"SESSION_STORE":                 "memory",
		"DATABASE_URL":                  "",
		"REDIS_URL":                     "",
		"ADMIN_EMAIL":                   adminEmail,
		"ADMIN_PASSWORD":                adminPassword,
		"ALLOW_OPEN_ADMIN_REGISTRATION": "false",
		"CORS_ORIGIN":                   "http://localhost:3000",
	}
	for k, v := range env {
		defaults[k] = v
	}
	for k, v := range defaults {
		t.Setenv(k, v)
	}

	c, err := config.New()
	require.NoError(t, err)

	m := metrics.NewMetrics(prometheus.NewRegistry())
	deps, err := NewDependencies(context.Background(), c, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	options = append([]ServerOption{WithMetrics(m)}, options...)
	s, err := New(context.Background(), c, deps.Services, options...)
	require.NoError(t, err)
	return &testFixture{server: s, deps: deps, metrics: m}
}

type request struct {
	method  string
	path    string
	body    any
	cookies []*http.Cookie
	headers map[string]string
}

func (f *testFixture) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	r := httptest.NewRequest(req.method, req.path, &body)
	r.Header.Set("Content-Type", contentTypeJSON)
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	for _, c := range req.cookies {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, r)
	return rec
}

func (f *testFixture) register(t *testing.T, email, name string) map[string]any {
	t.Helper()
	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRegister, body: map[string]string{
		"email": email, "password": memberPass, "name": name,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)
}

// login returns the accessToken and refreshToken cookies
func (f *testFixture) login(t *testing.T, email, password string) (access, refresh *http.Cookie) {
	t.Helper()
	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": email, "password": password,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return cookieNamed(t, rec, CookieAccessToken), cookieNamed(t, rec, CookieRefreshToken)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, float64(status), body["statusCode"])
	require.Equal(t, http.StatusText(status), body["error"])
	if message != "" {
		require.Equal(t, message, body["message"])
	}
}

func TestNewRequiresServices(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	c, err := config.New()
	require.NoError(t, err)

	_, err = New(context.Background(), c, Services{})
	require.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t, nil)

	user := f.register(t, "Alice@Example.com", "Alice")
	require.Equal(t, "alice@example.com", user["email"])
	require.Equal(t, "MEMBER", user["role"])
	require.NotContains(t, user, "passwordHash")
	require.NotContains(t, user, "password")

	access, refresh := f.login(t, "alice@example.com", memberPass)

	rec := f.do(t, request{method: http.MethodGet, path: RouteAuthMe, cookies: []*http.Cookie{access}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice@example.com", decodeBody(t, rec)["email"])

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh, cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	newAccess := cookieNamed(t, rec, CookieAccessToken)
	newRefresh := cookieNamed(t, rec, CookieRefreshToken)
	require.Equal(t, newAccess.Value, decodeBody(t, rec)["accessToken"])
	require.NotEqual(t, refresh.Value, newRefresh.Value)

	// The consumed refresh token is rejected, the rotated one works
	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh, cookies: []*http.Cookie{refresh}})
	requireError(t, rec, http.StatusUnauthorized, "Invalid refresh token")

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh, cookies: []*http.Cookie{newRefresh}})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginCookies(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "bob@example.com", "Bob")

	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": "bob@example.com", "password": memberPass,
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Len(t, body, 1)
	access := cookieNamed(t, rec, CookieAccessToken)
	refresh := cookieNamed(t, rec, CookieRefreshToken)
	require.Equal(t, access.Value, body["accessToken"])

	require.True(t, access.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, access.SameSite)
	require.Equal(t, "/", access.Path)
	require.False(t, access.Secure)
	require.Equal(t, 24*60*60, access.MaxAge)
	require.Equal(t, 7*24*60*60, refresh.MaxAge)
	require.True(t, refresh.HttpOnly)
}

func TestLoginCookiesSecureInProduction(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ENV": "production"})
	f.register(t, "bob@example.com", "Bob")

	access, refresh := f.login(t, "bob@example.com", memberPass)
	require.True(t, access.Secure)
	require.True(t, refresh.Secure)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "carol@example.com", "Carol")

	unknown := f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": "nobody@example.com", "password": memberPass,
	}})
	wrong := f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": "carol@example.com", "password": "Wr0ngPass!",
	}})

	requireError(t, unknown, http.StatusUnauthorized, "Invalid credentials")
	requireError(t, wrong, http.StatusUnauthorized, "Invalid credentials")
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
	require.Empty(t, unknown.Result().Cookies())
}

func TestRegisterErrors(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "dave@example.com", "Dave")

	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRegister, body: map[string]string{
		"email": "DAVE@example.com", "password": memberPass, "name": "Dave",
	}})
	requireError(t, rec, http.StatusConflict, "Email already exists")

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRegister, body: map[string]string{
		"email": "eve@example.com", "password": "weak", "name": "Eve",
	}})
	requireError(t, rec, http.StatusBadRequest, "")

	r := httptest.NewRequest(http.MethodPost, RouteAuthRegister, strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	f.server.ServeHTTP(bad, r)
	requireError(t, bad, http.StatusBadRequest, "Invalid request body")
}

func TestRequestAuthenticator(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "frank@example.com", "Frank")
	access, refresh := f.login(t, "frank@example.com", memberPass)

	tests := []struct {
		name    string
		req     request
		expCode int
	}{
		{
			name:    "no credentials",
			req:     request{},
			expCode: http.StatusUnauthorized,
		},
		{
			name:    "cookie",
			req:     request{cookies: []*http.Cookie{access}},
			expCode: http.StatusOK,
		},
		{
			name:    "bearer header",
			req:     request{headers: map[string]string{"Authorization": "Bearer " + access.Value}},
			expCode: http.StatusOK,
		},
		{
			name:    "lower case scheme",
			req:     request{headers: map[string]string{"Authorization": "bearer " + access.Value}},
			expCode: http.StatusOK,
		},
		{
			name:    "basic scheme",
			req:     request{headers: map[string]string{"Authorization": "Basic " + access.Value}},
			expCode: http.StatusUnauthorized,
		},
		{
			name:    "cookie wins over header",
			req:     request{cookies: []*http.Cookie{{Name: CookieAccessToken, Value: "garbage"}}, headers: map[string]string{"Authorization": "Bearer " + access.Value}},
			expCode: http.StatusUnauthorized,
		},
		{
			name:    "refresh token is not an access token",
			req:     request{headers: map[string]string{"Authorization": "Bearer " + refresh.Value}},
			expCode: http.StatusUnauthorized,
		},
		{
			name:    "tampered token",
			req:     request{headers: map[string]string{"Authorization": "Bearer " + access.Value + "x"}},
			expCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.method = http.MethodGet
			tt.req.path = RouteAuthMe
			rec := f.do(t, tt.req)
			require.Equal(t, tt.expCode, rec.Code, rec.Body.String())
		})
	}
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "grace@example.com", "Grace")
	access, refresh := f.login(t, "grace@example.com", memberPass)

	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthLogout, cookies: []*http.Cookie{access}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Less(t, cookieNamed(t, rec, CookieAccessToken).MaxAge, 0)
	require.Less(t, cookieNamed(t, rec, CookieRefreshToken).MaxAge, 0)

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh, cookies: []*http.Cookie{refresh}})
	requireError(t, rec, http.StatusUnauthorized, "Invalid refresh token")

	// Access tokens are stateless and keep working until they expire
	rec = f.do(t, request{method: http.MethodGet, path: RouteAuthMe, cookies: []*http.Cookie{access}})
	require.Equal(t, http.StatusOK, rec.Code)

	// Logging out twice is fine
	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthLogout, cookies: []*http.Cookie{access}})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
	f := setupTestFixture(t, nil)
	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh})
	requireError(t, rec, http.StatusUnauthorized, "Refresh token not found")
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "heidi@example.com", "Heidi")
	access, refresh := f.login(t, "heidi@example.com", memberPass)

	rec := f.do(t, request{method: http.MethodPatch, path: RouteAuthChangePassword, cookies: []*http.Cookie{access}, body: map[string]string{
		"currentPassword": "Wr0ngPass!", "newPassword": "N3wPassword!", "confirmNewPassword": "N3wPassword!",
	}})
	requireError(t, rec, http.StatusBadRequest, "Current password is incorrect")

	rec = f.do(t, request{method: http.MethodPatch, path: RouteAuthChangePassword, cookies: []*http.Cookie{access}, body: map[string]string{
		"currentPassword": memberPass, "newPassword": "N3wPassword!", "confirmNewPassword": "N3wPassword!",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRefresh, cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": "heidi@example.com", "password": memberPass,
	}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	f.login(t, "heidi@example.com", "N3wPassword!")
}

func TestAdminRoutes(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, "ivan@example.com", "Ivan")
	member, _ := f.login(t, "ivan@example.com", memberPass)
	admin, _ := f.login(t, adminEmail, adminPassword)

	newAdmin := map[string]string{"email": "judy@example.com", "password": memberPass, "name": "Judy"}

	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRegisterAdmin, body: newAdmin})
	requireError(t, rec, http.StatusUnauthorized, "")

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRegisterAdmin, body: newAdmin, cookies: []*http.Cookie{member}})
	requireError(t, rec, http.StatusForbidden, "Insufficient permissions")

	rec = f.do(t, request{method: http.MethodPost, path: RouteAuthRegisterAdmin, body: newAdmin, cookies: []*http.Cookie{admin}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "ADMIN", decodeBody(t, rec)["role"])

	rec = f.do(t, request{method: http.MethodPost, path: RouteCategories, body: map[string]string{"name": "Food"}, cookies: []*http.Cookie{member}})
	requireError(t, rec, http.StatusForbidden, "Insufficient permissions")

	rec = f.do(t, request{method: http.MethodPost, path: RouteCategories, body: map[string]string{"name": "Food"}, cookies: []*http.Cookie{admin}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestOpenAdminRegistration(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ALLOW_OPEN_ADMIN_REGISTRATION": "true"})

	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRegisterAdmin, body: map[string]string{
		"email": "kim@example.com", "password": memberPass, "name": "Kim",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "ADMIN", decodeBody(t, rec)["role"])
}

func TestCategoriesAndExpenses(t *testing.T) {
	f := setupTestFixture(t, nil)
	admin, _ := f.login(t, adminEmail, adminPassword)
	f.register(t, "leo@example.com", "Leo")
	f.register(t, "mia@example.com", "Mia")
	leo, _ := f.login(t, "leo@example.com", memberPass)
	mia, _ := f.login(t, "mia@example.com", memberPass)

	rec := f.do(t, request{method: http.MethodPost, path: RouteCategories, body: map[string]string{"name": "Travel"}, cookies: []*http.Cookie{admin}})
	require.Equal(t, http.StatusCreated, rec.Code)
	categoryID := int64(decodeBody(t, rec)["id"].(float64))
	categoryPath := "/categories/" + strconv.FormatInt(categoryID, 10)

	rec = f.do(t, request{method: http.MethodGet, path: "/categories/name/travel/exists", cookies: []*http.Cookie{leo}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["exists"])

	rec = f.do(t, request{method: http.MethodGet, path: "/categories/999/exists", cookies: []*http.Cookie{leo}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["exists"])

	rec = f.do(t, request{method: http.MethodGet, path: "/categories/abc", cookies: []*http.Cookie{leo}})
	requireError(t, rec, http.StatusBadRequest, "Validation failed (numeric string is expected)")

	for range 3 {
		rec = f.do(t, request{method: http.MethodPost, path: RouteExpenses, cookies: []*http.Cookie{leo}, body: map[string]any{
			"categoryId": categoryID, "amount": 12.5, "currency": "eur", "spentAt": "2024-05-01",
		}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	expense := decodeBody(t, rec)
	require.Equal(t, "EUR", expense["currency"])
	expensePath := "/expenses/" + strconv.FormatInt(int64(expense["id"].(float64)), 10)

	rec = f.do(t, request{method: http.MethodGet, path: RouteExpenses + "?limit=2", cookies: []*http.Cookie{leo}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get(headerTotalCount))
	var page []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 2)

	// Members only see their own expenses
	rec = f.do(t, request{method: http.MethodGet, path: RouteExpenses, cookies: []*http.Cookie{mia}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", rec.Header().Get(headerTotalCount))
	require.Equal(t, "[]\n", rec.Body.String())

	rec = f.do(t, request{method: http.MethodGet, path: expensePath, cookies: []*http.Cookie{mia}})
	requireError(t, rec, http.StatusNotFound, "Expense not found")

	rec = f.do(t, request{method: http.MethodGet, path: expensePath, cookies: []*http.Cookie{admin}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, request{method: http.MethodPut, path: expensePath, cookies: []*http.Cookie{leo}, body: map[string]any{"amount": 20}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 20.0, decodeBody(t, rec)["amount"])

	// A category in use cannot be deleted
	rec = f.do(t, request{method: http.MethodDelete, path: categoryPath, cookies: []*http.Cookie{admin}})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, request{method: http.MethodDelete, path: expensePath, cookies: []*http.Cookie{mia}})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, request{method: http.MethodDelete, path: expensePath, cookies: []*http.Cookie{leo}})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := setupTestFixture(t, nil)
	rec := f.do(t, request{method: http.MethodGet, path: "/nope"})
	requireError(t, rec, http.StatusNotFound, "Cannot GET /nope")
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, request{method: http.MethodOptions, path: RouteAuthLogin, headers: map[string]string{"Origin": "http://localhost:3000"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = f.do(t, request{method: http.MethodOptions, path: RouteAuthLogin, headers: map[string]string{"Origin": "http://evil.example"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t, nil)
	rec := f.do(t, request{method: http.MethodGet, path: RouteHealth})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, statusHealthy, decodeBody(t, rec)["status"])

	failing := HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}
	f = setupTestFixture(t, nil, WithHealthChecks(failing))
	rec = f.do(t, request{method: http.MethodGet, path: RouteHealth})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, statusUnhealthy, body["status"])
	require.Equal(t, map[string]any{"redis": statusUnhealthy}, body["dependencies"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.do(t, request{method: http.MethodPost, path: RouteAuthLogin, body: map[string]string{
		"email": "nobody@example.com", "password": memberPass,
	}})

	rec := f.do(t, request{method: http.MethodGet, path: RouteMetrics})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `expense_tracker_auth_operations_total{operation="login",outcome="failure"} 1`)
	require.Contains(t, rec.Body.String(), `path="POST /auth/login"`)
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t, nil)
	handler := ChainMiddleware(func(http.ResponseWriter, *http.Request) { panic("boom") }, f.server.RecoverMiddleware)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	requireError(t, rec, http.StatusInternalServerError, "Internal server error")
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	f := setupTestFixture(t, nil)
	handler := ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, f.server.RequireRoles("ADMIN"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"MAX_BODY_BYTES": "64"})
	rec := f.do(t, request{method: http.MethodPost, path: RouteAuthRegister, body: map[string]string{
		"email": "long@example.com", "password": memberPass, "name": strings.Repeat("x", 200),
	}})
	requireError(t, rec, http.StatusBadRequest, "Request body too large")
}
