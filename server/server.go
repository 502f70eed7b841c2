package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shelfsync/go-shelf-sync/basalam"
	"github.com/shelfsync/go-shelf-sync/bulk"
	"github.com/shelfsync/go-shelf-sync/identity"
	"github.com/shelfsync/go-shelf-sync/internal/config"
	"github.com/shelfsync/go-shelf-sync/oauthflow"
	"github.com/shelfsync/go-shelf-sync/oauthflow/staterepo"
	"github.com/shelfsync/go-shelf-sync/tokenstore"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	flow     *oauthflow.Service
	tokens   tokenstore.Repo
	client   *basalam.Client
	resolver *identity.Resolver
	updater  *bulk.Orchestrator
}

func New(cfg config.Config) *Server {
	states := staterepo.NewInMemoryRepo(cfg.GetStateTTL())
	tokens := tokenstore.NewInMemoryRepo()
	client := basalam.NewClient(cfg.GetAPIBaseURL())

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		flow:     oauthflow.NewService(cfg, states, tokens, nil),
		tokens:   tokens,
		client:   client,
		resolver: identity.NewResolver(client),
		updater:  bulk.NewOrchestrator(client, cfg.GetBulkWorkers(), cfg.GetProductTimeout()),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
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
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
