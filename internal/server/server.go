package server

import (
	"context"
	"net/http"
	"time"

	"github.com/draftgate/draftgate/internal/config"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/handler"
	"github.com/draftgate/draftgate/internal/healthcheck"
	"github.com/draftgate/draftgate/internal/middleware"
	"github.com/draftgate/draftgate/internal/quota"
	"github.com/draftgate/draftgate/internal/repository"
	"github.com/draftgate/draftgate/internal/service"
	"github.com/draftgate/draftgate/internal/sportsdata"
	"github.com/draftgate/draftgate/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *storage.RedisClient
	postgres *storage.Postgres
	log      *zap.Logger

	gate         *gate.Gate
	subscription *service.SubscriptionService
	feed         *sportsdata.Client

	authHandler         *handler.AuthHandler
	lineupHandler       *handler.LineupHandler
	playerHandler       *handler.PlayerHandler
	subscriptionHandler *handler.SubscriptionHandler
	analyticsHandler    *handler.AnalyticsHandler

	auditor    *middleware.RequestAuditor
	monitor    *healthcheck.Monitor
	stopJobs   context.CancelFunc
	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres, feed *sportsdata.Client, log *zap.Logger) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	userRepo := repository.NewUserRepository(postgres)
	playerRepo := repository.NewPlayerRepository(postgres)
	lineupRepo := repository.NewLineupRepository(postgres)
	requestLogRepo := repository.NewRequestLogRepository(postgres)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.ExpiryHours)
	subscriptionService := service.NewSubscriptionService(userRepo, redis, log)
	lineupService := service.NewLineupService(playerRepo, lineupRepo, cfg, log)
	analyticsService := service.NewAnalyticsService(requestLogRepo)

	g := gate.New(cfg.CapabilityTable(), cfg.QuotaTable(), quota.NewRedisStore(redis))

	jobCtx, stopJobs := context.WithCancel(context.Background())

	monitor := healthcheck.NewMonitor(10*time.Second, log)
	monitor.Register("redis", redis.Ping)
	monitor.Register("postgres", postgres.Ping)
	go monitor.Run(jobCtx)

	s := &Server{
		router:   router,
		config:   cfg,
		redis:    redis,
		postgres: postgres,
		log:      log,

		gate:         g,
		subscription: subscriptionService,
		feed:         feed,

		authHandler:         handler.NewAuthHandler(authService),
		lineupHandler:       handler.NewLineupHandler(lineupService, log),
		playerHandler:       handler.NewPlayerHandler(playerRepo),
		subscriptionHandler: handler.NewSubscriptionHandler(subscriptionService, g),
		analyticsHandler:    handler.NewAnalyticsHandler(analyticsService, requestLogRepo),

		auditor:  middleware.NewRequestAuditor(requestLogRepo, log, 1000),
		monitor:  monitor,
		stopJobs: stopJobs,
	}

	s.setupMiddleware()
	s.setupRoutes(authService)

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.log))
	s.router.Use(middleware.CORS())
	s.router.Use(s.auditor.Middleware())
}

func (s *Server) setupRoutes(authService *service.AuthService) {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	api := s.router.Group("/")
	api.Use(middleware.RequireAuth(authService))
	{
		api.GET("/players",
			s.gated("PLAYER_POOL"), s.playerHandler.List)
		api.GET("/players/:id",
			s.gated("PLAYER_POOL"), s.playerHandler.Get)
		api.GET("/reports/ownership",
			s.gated("OWNERSHIP_REPORT"), s.playerHandler.OwnershipReport)

		api.POST("/lineups/validate",
			s.gated("LINEUP_VALIDATE"), s.lineupHandler.Validate)
		api.POST("/lineups",
			s.gated("LINEUP_SAVE"), s.lineupHandler.Save)
		api.POST("/lineups/optimize",
			s.gated("LINEUP_OPTIMIZER"), s.lineupHandler.Optimize)
		api.GET("/lineups", s.lineupHandler.List)
		api.DELETE("/lineups/:id", s.lineupHandler.Delete)

		api.GET("/subscription", s.subscriptionHandler.GetMine)
	}

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(authService), middleware.RequireRole("admin"))
	{
		admin.GET("/analytics", s.analyticsHandler.GetSummary)
		admin.GET("/logs", s.analyticsHandler.GetLogs)
		admin.GET("/users", s.subscriptionHandler.ListUsers)
		admin.PUT("/users/:id/tier", s.subscriptionHandler.UpdateTier)
		admin.POST("/players/refresh", s.refreshPlayers)
	}
}

func (s *Server) gated(routeKey string) gin.HandlerFunc {
	return middleware.RequireCapability(s.gate, s.subscription, routeKey)
}

func (s *Server) healthCheck(c *gin.Context) {
	statuses, allHealthy := s.monitor.Snapshot()

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "draftgate",
		"timestamp": time.Now().Unix(),
		"checks":    statuses,
	})
}

func (s *Server) refreshPlayers(c *gin.Context) {
	if s.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed not configured"})
		return
	}

	if err := s.feed.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Player pool refreshed"})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	s.log.Info("starting server",
		zap.String("addr", addr),
		zap.String("environment", s.config.Server.Environment))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stopJobs()
	s.auditor.Close()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
