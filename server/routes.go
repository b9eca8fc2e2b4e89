package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-expense-tracker/users"
	"github.com/rs/zerolog/log"
)

// Route declares an endpoint together with its access policy
type Route struct {
	Method        string
	Path          string
	Handler       http.HandlerFunc
	Authenticated bool         // Requires a valid access token
	Roles         []users.Role // Any one of these roles is enough. Empty means any authenticated caller.
}

func (s *Server) initRoutes() {
	registerAdmin := Route{Method: http.MethodPost, Path: RouteAuthRegisterAdmin, Handler: s.RegisterAdminHandler()}
	if !s.config.GetAllowOpenAdminRegistration() {
		registerAdmin.Authenticated = true
		registerAdmin.Roles = []users.Role{users.RoleAdmin}
	}

	routes := []Route{
		// AUTH
		{Method: http.MethodPost, Path: RouteAuthRegister, Handler: s.RegisterHandler()},
		registerAdmin,
		{Method: http.MethodPost, Path: RouteAuthLogin, Handler: s.LoginHandler()},
		{Method: http.MethodPost, Path: RouteAuthRefresh, Handler: s.RefreshHandler()},
		{Method: http.MethodPatch, Path: RouteAuthChangePassword, Handler: s.ChangePasswordHandler(), Authenticated: true},
		{Method: http.MethodPost, Path: RouteAuthLogout, Handler: s.LogoutHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteAuthMe, Handler: s.MeHandler(), Authenticated: true},

		// CATEGORIES
		{Method: http.MethodGet, Path: RouteCategories, Handler: s.ListCategoriesHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteCategory, Handler: s.GetCategoryHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteCategoryExists, Handler: s.CategoryExistsHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteCategoryNameExists, Handler: s.CategoryNameExistsHandler(), Authenticated: true},
		{Method: http.MethodPost, Path: RouteCategories, Handler: s.CreateCategoryHandler(), Authenticated: true, Roles: []users.Role{users.RoleAdmin}},
		{Method: http.MethodPatch, Path: RouteCategory, Handler: s.UpdateCategoryHandler(), Authenticated: true, Roles: []users.Role{users.RoleAdmin}},
		{Method: http.MethodDelete, Path: RouteCategory, Handler: s.DeleteCategoryHandler(), Authenticated: true, Roles: []users.Role{users.RoleAdmin}},

		// EXPENSES
		{Method: http.MethodPost, Path: RouteExpenses, Handler: s.CreateExpenseHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteExpenses, Handler: s.ListExpensesHandler(), Authenticated: true},
		{Method: http.MethodGet, Path: RouteExpense, Handler: s.GetExpenseHandler(), Authenticated: true},
		{Method: http.MethodPut, Path: RouteExpense, Handler: s.UpdateExpenseHandler(), Authenticated: true},
		{Method: http.MethodDelete, Path: RouteExpense, Handler: s.DeleteExpenseHandler(), Authenticated: true},

		// OPERATIONS
		{Method: http.MethodGet, Path: RouteHealth, Handler: s.HealthHandler()},
	}
	if s.metrics != nil {
		routes = append(routes, Route{Method: http.MethodGet, Path: RouteMetrics, Handler: s.metrics.Handler().ServeHTTP})
	}

	for _, route := range routes {
		s.RegisterRoute(route)
	}

	// CORS preflight for every path, and a JSON 404 for anything unmatched
	s.mux.HandleFunc("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
	s.mux.HandleFunc("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

// RegisterRoute wraps the handler in the standard API middleware, then the
// authenticator and role check the route declares
func (s *Server) RegisterRoute(route Route) {
	mw := s.APIMiddleware()
	if route.Authenticated || len(route.Roles) > 0 {
		mw = append(mw, s.RequireAuth())
	}
	if len(route.Roles) > 0 {
		mw = append(mw, s.RequireRoles(route.Roles...))
	}
	s.RegisterRouteFunc(route.Method+" "+route.Path, ChainMiddleware(route.Handler, mw...))
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Error().Msgf("[%-19s] %s %s", displayMethod, path, errorString)
}
