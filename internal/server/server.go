package server

import (
	"context"

	"cert-evaluator-be/internal/bootstrap"
	"cert-evaluator-be/internal/config"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
	logger    logger.ILogger
}

func New(cfg *config.Config, container *bootstrap.Container, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB uploads
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			status := serverutils.StatusForError(err)
			message := err.Error()
			if status == fiber.StatusInternalServerError {
				message = "Internal server error"
			}
			return ctx.Status(status).JSON(serverutils.ErrorResponse(status, message))
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse[any]("ok", nil))
	})

	registerRoutes(app, container, serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret))

	return &Server{app: app, cfg: cfg, container: container, logger: log}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("Server", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container, auth fiber.Handler) {
	api := app.Group("/api")

	c.SessionController.RegisterRoutes(api, auth)
	c.CriteriaController.RegisterRoutes(api, auth)
	c.EvaluationController.RegisterRoutes(api, auth)
}
