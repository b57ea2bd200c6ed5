// Package server contains the HTTP and WebSocket surface of the portal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartbarangay/internal/cache"
	"smartbarangay/internal/config"
	"smartbarangay/internal/database"
	"smartbarangay/internal/feed"
	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"
	"smartbarangay/internal/notifications"
	"smartbarangay/internal/reports"
	"smartbarangay/internal/service"
	"smartbarangay/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ReportsBackend is the reports API as the server uses it.
type ReportsBackend interface {
	service.ReportsAPI
	Ping(ctx context.Context) error
}

// Deps are the already-initialized collaborators of a Server. DB and Redis
// are optional; KV and Reports are required.
type Deps struct {
	KV      store.KV
	DB      *gorm.DB
	Redis   *redis.Client
	Reports ReportsBackend
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	store          *store.Store
	applier        *feed.Applier
	hub            *notifications.Hub
	notifier       *notifications.Notifier
	reports        ReportsBackend
	portal         *service.PortalService
	sessions       *middleware.Sessions
}

// NewServer connects the configured store backend and Redis, then builds the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	deps, err := ConnectDeps(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, deps)
}

// ConnectDeps opens the store backend named by cfg, Redis when configured, and
// the reports API client.
func ConnectDeps(ctx context.Context, cfg *config.Config) (Deps, error) {
	var (
		deps Deps
		err  error
	)

	if cfg.StoreBackend == config.StoreRedis {
		if deps.Redis, err = cache.Connect(ctx, cfg.RedisURL); err != nil {
			return Deps{}, fmt.Errorf("redis connection failed: %w", err)
		}
	} else if cfg.RedisURL != "" {
		// Optional: without Redis there is no cross-instance fan-out or rate limiting.
		if deps.Redis, err = cache.Connect(ctx, cfg.RedisURL); err != nil {
			middleware.Logger.WarnContext(ctx, "redis unavailable, continuing without it",
				slog.String("addr", cfg.RedisURL), slog.String("error", err.Error()))
			deps.Redis = nil
		}
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		deps.KV = store.NewRedisKV(deps.Redis, cfg.StorePrefix)
	case config.StoreSQL:
		if deps.DB, err = database.Connect(cfg); err != nil {
			deps.Close()
			return Deps{}, fmt.Errorf("database connection failed: %w", err)
		}
		deps.KV = store.NewGormKV(deps.DB)
	default:
		deps.KV = store.NewMemoryKV()
	}

	deps.Reports = reports.NewClient(cfg.ReportsAPIURL, cfg.ReportsAPITimeout())
	return deps, nil
}

// Close releases the database and Redis connections, if any.
func (d Deps) Close() {
	if d.DB != nil {
		if err := database.Close(d.DB); err != nil {
			middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.KV == nil {
		return nil, errors.New("store backend is required")
	}
	if deps.Reports == nil {
		return nil, errors.New("reports API client is required")
	}

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("smartbarangay-api"),
		store:          store.New(deps.KV),
		hub:            notifications.NewHub(),
		reports:        deps.Reports,
		sessions:       middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL()),
	}
	s.applier = feed.NewApplier(s.store, s.hub)
	s.portal = service.NewPortalService(s.reports, s.applier)

	if deps.Redis != nil {
		s.notifier = notifications.NewNotifier(deps.Redis, cfg.InstanceID)
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS must run before anything that can short-circuit so error responses
	// still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Smart Barangay Metrics Dashboard",
	}))

	session := api.Group("/session")
	session.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	session.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)

	protected := api.Group("", s.sessions.AuthRequired())
	protected.Get("/feed", s.GetFeed)

	reportRoutes := protected.Group("/reports")
	reportRoutes.Post("/", middleware.RateLimit(s.redis, 5, time.Minute, "submit_report"), s.SubmitReport)
	reportRoutes.Get("/mine", s.GetMyReports)
	reportRoutes.Post("/sync", s.SyncMyReports)
	// Specific routes before generic /:reportId
	reportRoutes.Post("/pending/:postId/retry", s.RetryReport)
	reportRoutes.Put("/:reportId", s.UpdateReport)
	reportRoutes.Delete("/:reportId", s.DeleteReport)

	protected.Put("/account/password", middleware.RateLimit(s.redis, 5, 10*time.Minute, "change_password"), s.ChangePassword)

	ws := protected.Group("/ws")
	ws.Get("/feed", s.FeedSocketHandler())

	admin := protected.Group("/admin", middleware.AdminRequired())
	admin.Post("/announcements", s.PostAnnouncement)
	admin.Get("/reports", s.GetAdminReports)
	admin.Put("/reports/:reportId/status", s.UpdateReportStatus)
	admin.Get("/pending-users", s.GetPendingUsers)
	admin.Post("/pending-users/:userId/approve", s.ApproveUser)
	admin.Post("/pending-users/:userId/reject", s.RejectUser)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the store backend and the reports API. Only the store
// decides readiness; an unreachable reports API is reported as degraded.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{"store": s.store.Backend()}
	healthy := true

	if s.db != nil {
		status := "healthy"
		if err := database.Ping(ctx, s.db); err != nil {
			status = "unhealthy"
			healthy = false
		}
		checks["database"] = status
	}

	if s.redis != nil {
		status := "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			status = "unhealthy"
			if s.config.StoreBackend == config.StoreRedis {
				healthy = false
			}
		}
		checks["redis"] = status
	}

	checks["reports_api"] = "healthy"
	if err := s.reports.Ping(ctx); err != nil {
		checks["reports_api"] = "unreachable"
	}

	status, overall := fiber.StatusOK, "healthy"
	if !healthy {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now(),
	})
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Smart Barangay API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	return s.fail(c, err)
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start feed hub wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting",
		slog.String("port", s.config.Port),
		slog.String("store", s.store.Backend()),
		slog.String("reports_api", s.config.ReportsAPIURL),
	)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	Deps{DB: s.db, Redis: s.redis}.Close()

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func (s *Server) baseContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}
