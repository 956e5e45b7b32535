package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/brianbtrfld/sram-ebike/internal/auth"
	"github.com/brianbtrfld/sram-ebike/internal/config"
	"github.com/brianbtrfld/sram-ebike/internal/db"
	"github.com/brianbtrfld/sram-ebike/internal/logging"
	"github.com/brianbtrfld/sram-ebike/internal/rides"
	"github.com/brianbtrfld/sram-ebike/internal/sentry"
	"github.com/brianbtrfld/sram-ebike/internal/simulation"
	"github.com/brianbtrfld/sram-ebike/internal/stream"
	"github.com/brianbtrfld/sram-ebike/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const schemaTimeout = 5 * time.Second

var newPanicReporter = sentry.PanicReporter

type Server struct {
	App        *fiber.App
	Cfg        config.Config
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Stream     *stream.Hub
	Simulation *simulation.Service
	Rides      *rides.Service
	Logger     *slog.Logger
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}

	report := newPanicReporter(log)
	app := fiber.New()
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Error("panic recovered", "method", c.Method(), "path", c.Path(), "panic", e)
			report(e, map[string]string{"method": c.Method(), "path": c.Path()})
		},
	}))
	app.Use(logger.New())

	// a nil pool must stay a nil interface so the library reports itself unavailable
	var querier db.Querier
	if pool != nil {
		querier = pool
	}

	s := &Server{
		App:        app,
		Cfg:        cfg,
		DB:         pool,
		Redis:      redisClient,
		Stream:     stream.NewHub(redisClient, log),
		Simulation: simulation.NewService(simulation.NewFileLoader(cfg.RidesDir), log),
		Rides:      rides.NewService(querier),
		Logger:     log,
	}

	if querier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		if err := s.Rides.EnsureSchema(ctx); err != nil {
			log.Error("ensure rides schema", "error", err)
		}
		cancel()
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	operator := auth.Operator{Username: s.Cfg.OperatorUser, PasswordHash: s.Cfg.OperatorPasswordHash}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, operator))
	simulation.RegisterRoutes(s.App.Group("/simulation"), s.Simulation, s.Stream,
		upload.NewClient(s.Cfg.UploadURL, s.Cfg.UploadTimeout))
	rides.RegisterRoutes(s.App.Group("/api/rides"), s.Rides, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
