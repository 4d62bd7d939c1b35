package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))

	if s.verifier != nil {
		s.RegisterRouteHandler("POST "+RouteCheckToken, ChainMiddleware(s.CheckToken(), s.APIMiddleware()...))
	}
}
