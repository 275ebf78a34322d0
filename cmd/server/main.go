package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentstock/agentstock/internal/config"
	"github.com/agentstock/agentstock/internal/database"
	"github.com/agentstock/agentstock/internal/modules/agents"
	"github.com/agentstock/agentstock/internal/modules/market"
	"github.com/agentstock/agentstock/internal/modules/portfolio"
	"github.com/agentstock/agentstock/internal/modules/trading"
	"github.com/agentstock/agentstock/internal/scheduler"
	"github.com/agentstock/agentstock/internal/server"
	"github.com/agentstock/agentstock/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting AgentStock")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	agentRepo := agents.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	tradeRepo := trading.NewTradeRepository(db.Conn(), log)
	quoteRepo := market.NewQuoteRepository(db.Conn(), log)

	// Services
	provider := market.NewPolygonClient(market.PolygonConfig{APIKey: cfg.PolygonAPIKey}, log)
	quoteService := market.NewQuoteService(quoteRepo, provider, log)
	valuator := portfolio.NewValuator(agentRepo, positionRepo, quoteRepo, log)
	engine := trading.NewEngine(db, agentRepo, positionRepo, tradeRepo, quoteService, quoteRepo, log)

	if cfg.PolygonAPIKey == "" {
		log.Warn().Msg("POLYGON_API_KEY not set, trading limited to already-cached prices")
	}

	// Scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.PriceRefreshSchedule, scheduler.NewPriceRefreshJob(quoteService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		DevMode:           cfg.DevMode,
		AgentRepo:         agentRepo,
		TradeRepo:         tradeRepo,
		Valuator:          valuator,
		AgentHandlers:     agents.NewHandlers(agentRepo, log),
		MarketHandlers:    market.NewHandlers(quoteService, log),
		TradingHandlers:   trading.NewHandlers(engine, tradeRepo, log),
		PortfolioHandlers: portfolio.NewHandlers(valuator, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
