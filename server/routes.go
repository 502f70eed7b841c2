package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, s.IndexHandler())
	s.RegisterRouteFunc("GET "+RouteDashboard, s.DashboardHandler())

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("GET "+RouteAuthCallback, s.OAuthCallbackHandler())

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIAuthStatus, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Protected API routes (require an authenticated session)
	s.RegisterRouteHandler("GET "+RouteAPIUserMe, ChainMiddleware(s.UserInfoHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAPIShelves, ChainMiddleware(s.ShelvesHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAPIShelfProducts, ChainMiddleware(s.ShelfProductsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPIUpdateDescriptions, ChainMiddleware(s.UpdateDescriptionsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPIUpdateImages, ChainMiddleware(s.UpdateImagesHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Debug routes
	s.RegisterRouteHandler("GET "+RouteAPIDebugToken, ChainMiddleware(s.DebugTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIDebugUserInfo, ChainMiddleware(s.DebugUserInfoHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAPIDebugShelfProducts, ChainMiddleware(s.DebugShelfProductsHandler(), s.APIMiddleware(s.RequireAuth())...))
}
