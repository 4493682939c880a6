package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/juriscorrect/juriscorrect-api/internal/config"
	"github.com/juriscorrect/juriscorrect-api/internal/handler"
	"github.com/juriscorrect/juriscorrect-api/internal/middleware"
	"github.com/juriscorrect/juriscorrect-api/internal/observability"
	"github.com/juriscorrect/juriscorrect-api/internal/service"
)

// Dependencies carries the services the route handlers need.
type Dependencies struct {
	Submissions service.SubmissionService
	Corrections service.CorrectionService
	Payments    service.PaymentService
	Logger      zerolog.Logger
}

// Register wires every HTTP route onto the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/api/v1/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", middleware.OptionalAuth(cfg.JWTSecret))

	submissions := api.Group("/submissions")
	handler.NewSubmissionHandler(deps.Submissions, deps.Logger).Register(submissions)

	corrections := api.Group("/corrections")
	handler.NewCorrectionHandler(deps.Corrections, deps.Logger).Register(corrections)

	payments := api.Group("/payments")
	handler.NewPaymentHandler(deps.Payments, deps.Logger).Register(payments)
}
