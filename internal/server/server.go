// Package server is the backend-for-frontend proxy: it holds the provider
// API key so clients only need the service key.
package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

type Config struct {
	// APIKey is the service key clients send as x-api-key. Empty disables auth.
	APIKey string
	// UpstreamBaseURL defaults to the public provider API.
	UpstreamBaseURL string
	UpstreamAPIKey  string
	Resolver        internallist.Resolver
	Client          *retryablehttp.Client
	Log             logrus.FieldLogger
}

type Server struct {
	cfg    Config
	router chi.Router
	log    logrus.FieldLogger
}

func New(cfg Config) *Server {
	cfg.UpstreamBaseURL = strings.TrimRight(strings.TrimSpace(cfg.UpstreamBaseURL), "/")
	if cfg.UpstreamBaseURL == "" {
		cfg.UpstreamBaseURL = reputation.DEFAULT_BASE_URL
	}
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	s := &Server{cfg: cfg, router: chi.NewRouter(), log: log}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.log.Infof("Starting BFF on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.apiKeyAuth)
		r.Post("/urls", s.handleSubmitURL)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Post("/resolve", s.handleResolve)
	})
}

func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" || r.Header.Get("x-api-key") == s.cfg.APIKey {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
