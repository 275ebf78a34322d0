package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
	"github.com/agentstock/agentstock/internal/modules/portfolio"
	"github.com/agentstock/agentstock/internal/modules/trading"
)

// Config holds server configuration and module dependencies
type Config struct {
	Port    int
	Log     zerolog.Logger
	DevMode bool

	AgentRepo         *agents.Repository
	TradeRepo         *trading.TradeRepository
	Valuator          *portfolio.Valuator
	AgentHandlers     *agents.Handlers
	MarketHandlers    *market.Handlers
	TradingHandlers   *trading.Handlers
	PortfolioHandlers *portfolio.Handlers
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/agents", func(r chi.Router) {
			r.Post("/", s.cfg.AgentHandlers.HandleCreateAgent)
			r.Get("/", s.cfg.AgentHandlers.HandleListAgents)
			r.Get("/{agentId}", s.handleGetAgent)
		})

		r.Post("/trade", s.cfg.TradingHandlers.HandleTrade)
		r.Get("/trades", s.cfg.TradingHandlers.HandleGetRecentTrades)

		r.Get("/portfolio/{agentId}", s.cfg.PortfolioHandlers.HandleGetPortfolio)

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", s.cfg.PortfolioHandlers.HandleGetLeaderboard)
			r.Get("/stats", s.cfg.PortfolioHandlers.HandleGetLeaderboardStats)
		})

		r.Get("/market", s.cfg.MarketHandlers.HandleGetMarket)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
