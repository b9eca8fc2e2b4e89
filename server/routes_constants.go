package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthRegister       = "/auth/register"
	RouteAuthRegisterAdmin  = "/auth/register-admin"
	RouteAuthLogin          = "/auth/login"
	RouteAuthRefresh        = "/auth/refresh"
	RouteAuthChangePassword = "/auth/change-password"
	RouteAuthLogout         = "/auth/logout"
	RouteAuthMe             = "/auth/me"

	// Category Routes
	RouteCategories         = "/categories"
	RouteCategory           = "/categories/{id}"
	RouteCategoryExists     = "/categories/{id}/exists"
	RouteCategoryNameExists = "/categories/name/{name}/exists"

	// Expense Routes
	RouteExpenses = "/expenses"
	RouteExpense  = "/expenses/{id}"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)

// Cookie names shared with the browser client
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)
