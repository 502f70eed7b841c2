package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pages (rendering lives elsewhere; these only redirect / acknowledge)
	RouteIndex     = "/"
	RouteDashboard = "/dashboard"

	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"

	// API Routes
	RouteAPIAuthStatus         = "/api/auth/status"
	RouteAPIUserMe             = "/api/user/me"
	RouteAPIShelves            = "/api/shelves"
	RouteAPIShelfProducts      = "/api/shelves/{shelf_id}/products"
	RouteAPIUpdateDescriptions = "/api/shelves/{shelf_id}/update-descriptions"
	RouteAPIUpdateImages       = "/api/shelves/{shelf_id}/update-images"
	RouteAPIHealth             = "/api/health"

	// Debug Routes
	RouteAPIDebugToken         = "/api/debug/token"
	RouteAPIDebugUserInfo      = "/api/debug/user-info"
	RouteAPIDebugShelfProducts = "/api/debug/shelf/{shelf_id}/products"
)
