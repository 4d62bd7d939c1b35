// Package server exposes the provider's token endpoint over HTTP. Grant
// handling lives in the granter package; this layer only extracts the
// client principal and request parameters and renders wire responses.
package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-provider/granter"
	"github.com/jrsteele09/go-oauth2-provider/internal/config"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	dispatcher *granter.Dispatcher

	// verifier is optional. When set, the check_token route is
	// registered and introspects signed tokens.
	verifier token.Signer
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithTokenVerifier enables the check_token introspection route for
// signed (JWT) access tokens.
func WithTokenVerifier(s token.Signer) Option {
	return func(srv *Server) {
		srv.verifier = s
	}
}

func New(cfg config.Config, dispatcher *granter.Dispatcher, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] nil config")
	}
	if dispatcher == nil {
		return nil, errors.New("[server.New] nil dispatcher")
	}

	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		config:     cfg,
		dispatcher: dispatcher,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("Registered route")
	}
}
