// Package main provides the Scribe API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/web"
	"github.com/scribehq/scribe/pkg/workflow"
)

type API struct {
	logger   *slog.Logger
	executor *workflow.Executor
	store    checkpoint.Store
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, executor *workflow.Executor, store checkpoint.Store) *API {
	return &API{
		logger:   logger,
		executor: executor,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.executor, a.store, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Scribe API")
	})

	app.Post("/executions", handlers.ExecuteAgent)

	t := app.Group("/threads")
	t.Get("/:id", handlers.GetThreadStatus)
	t.Post("/:id/resume", handlers.ResumeThread)
	t.Post("/:id/cancel", handlers.CancelThread)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
