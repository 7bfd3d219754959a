// Package server exposes the JARVIS orchestrator over HTTP and a websocket
// command channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/agent"
)

// Version is reported by /health.
const Version = "1.0.0"

// Config configures the brain service.
type Config struct {
	Orchestrator *agent.Orchestrator
	Host         string
	Port         int
	CORSOrigins  []string // "*" allows any origin
	Logger       zerolog.Logger
}

// Server is the brain HTTP service.
type Server struct {
	orch       *agent.Orchestrator
	mux        *http.ServeMux
	httpServer *http.Server
	upgrader   websocket.Upgrader
	sockets    *socketSet
	origins    []string
	log        zerolog.Logger
}

// New creates the brain service and registers its routes.
func New(cfg *Config) *Server {
	s := &Server{
		orch:    cfg.Orchestrator,
		mux:     http.NewServeMux(),
		sockets: newSocketSet(),
		origins: cfg.CORSOrigins,
		log:     cfg.Logger.With().Str("component", "server").Logger(),
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowOrigin(origin) != ""
		},
	}

	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/api/process", s.processHandler)
	s.mux.HandleFunc("/api/status", s.statusHandler)
	s.mux.HandleFunc("/api/rings", s.ringsHandler)
	s.mux.HandleFunc("/api/conversation-history", s.historyHandler)
	s.mux.HandleFunc("/api/cost-stats", s.costStatsHandler)
	s.mux.HandleFunc("/ws", s.wsHandler)

	// No WriteTimeout: /ws connections are long-lived.
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.httpServer.RegisterOnShutdown(s.closeSockets)
	return s
}

// ServeHTTP applies CORS headers and dispatches to the routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed.
func (s *Server) allowOrigin(origin string) string {
	if slices.Contains(s.origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.origins, origin) {
		return origin
	}
	return ""
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("brain service starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
