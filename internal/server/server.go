// Package server exposes a service.Catalog over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Config holds the HTTP server settings.
type Config struct {
	Port           int
	Env            string
	StaticDir      string
	RateLimitRPS   float64
	RateLimitBurst int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Production reports whether the server runs in production mode, which
// disables CORS headers.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Server serves a catalog over HTTP.
type Server struct {
	config  Config
	catalog service.Catalog
	logger  logrus.FieldLogger
	limiter *IPRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a server for catalog. A nil logger logs to the standard logrus
// logger.
func New(cfg Config, catalog service.Catalog, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		config:  cfg,
		catalog: catalog,
		logger:  logger,
		limiter: NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// Router builds the request multiplexer with every route and middleware.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestID, s.accessLog)

	methods := []string{http.MethodGet}
	if !s.config.Production() {
		router.Use(cors)
		methods = append(methods, http.MethodOptions)
	}
	router.Use(s.rateLimit)

	router.HandleFunc("/shows", s.searchShows).Methods(methods...)
	router.HandleFunc("/shows/{id}", s.getShow).Methods(methods...)
	router.HandleFunc("/episodes/{id}", s.randomEpisode).Methods(methods...)
	router.HandleFunc("/episode/{id}", s.randomEpisode).Methods(methods...)
	router.HandleFunc("/episodes/{id}/{season}/{episode}", s.getEpisode).Methods(methods...)

	if dir := s.config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			router.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
		} else {
			s.logger.WithField("dir", dir).Debug("static directory not found, not serving assets")
		}
	}

	return router
}

// Start listens on the configured port and blocks until the server stops.
func (s *Server) Start() error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.WithField("port", s.config.Port).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down. It is a no-op before Start.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}
