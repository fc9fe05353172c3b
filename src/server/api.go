package server

import (
	"fmt"
	"net/http"
	"time"

	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
	"chart-bridge/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// APIServer
//
// The REST surface the console's chart widget talks to. One endpoint does
// real work (/api/bars); health and config exist for the operators.
// -----------------------------------------------------------------------------

type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Bars      interfaces.IBarSource
	Scheduler *utils.MarketScheduler
	engine    *gin.Engine
	startedAt time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, bars interfaces.IBarSource, scheduler *utils.MarketScheduler, log *logger.Logger) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:    cfg,
		Logger:    log,
		Bars:      bars,
		Scheduler: scheduler,
		engine:    gin.Default(),
		startedAt: time.Now(),
	}

	s.engine.Use(corsMiddleware())
	s.engine.Use(s.requestIDMiddleware())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// corsMiddleware answers every entry point permissively, including a
// dedicated OPTIONS responder for preflights.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	s.engine.GET("/api/bars", s.getBars)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Handler exposes the router for httptest.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getBars(c *gin.Context) {
	symbol := c.Query("symbol")
	interval := c.Query("interval")

	normalized, err := ValidateBarsQuery(symbol, interval)
	if err != nil {
		writeError(c, err)
		return
	}

	start := time.Now()
	bars, err := s.Bars.FetchBars(c.Request.Context(), symbol, normalized)
	if err != nil {
		requestID, _ := c.Get("request_id")
		s.Logger.Warning("Bar fetch failed for %s @ %s (request %v): %v", symbol, normalized, requestID, err)
		writeError(c, err)
		return
	}

	s.Logger.Debug("Served %d bars for %s @ %s in %s", len(bars), symbol, normalized, time.Since(start).Round(time.Millisecond))
	c.JSON(http.StatusOK, bars)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	health := gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}
	if s.Scheduler != nil {
		health["markets"] = s.Scheduler.OpenMarkets()
		health["any_market_open"] = s.Scheduler.AnyMarketOpen()
	}
	c.JSON(http.StatusOK, health)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	// Redacted echo: endpoints and budgets only, never identity fields.
	c.JSON(http.StatusOK, gin.H{
		"name":                  s.Config.Name,
		"venue_rest_url":        s.Config.Venue.RestURL,
		"venue_ws_url":          s.Config.Venue.WsURL,
		"phase_timeout_seconds": s.Config.Stream.PhaseTimeoutSeconds,
		"heartbeat_seconds":     s.Config.Stream.HeartbeatSeconds,
		"symbols":               s.Config.Symbols,
	})
}
