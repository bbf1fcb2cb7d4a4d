package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Services       *handlers.ServicesHandler
	Requests       *handlers.RequestsHandler
	Accounts       *handlers.AccountsHandler
	Tasks          *handlers.TasksHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/professionals/register", cfg.Auth.RegisterProfessional)
	authGroup.Post("/login", cfg.Auth.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle)

	services := authed.Group("/services")
	services.Get("/", cfg.Services.ListServices)
	services.Get("/:id", cfg.Services.GetService)
	services.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Services.CreateService)
	services.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Services.UpdateService)
	services.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Services.DeleteService)

	requests := authed.Group("/service-requests")
	requests.Post("/", auth.RequireRole(domain.RoleCustomer, domain.RoleAdmin), cfg.Requests.CreateRequest)
	requests.Get("/", cfg.Requests.ListRequests)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Post("/:id/transition", cfg.Requests.Transition)
	requests.Post("/:id/review", auth.RequireRole(domain.RoleCustomer), cfg.Requests.FileReview)

	reviews := authed.Group("/reviews")
	reviews.Get("/", cfg.Requests.ListReviews)
	reviews.Get("/:id", cfg.Requests.GetReview)

	profiles := authed.Group("/profiles")
	profiles.Put("/:profileID", auth.RequireRole(domain.RoleProfessional, domain.RoleAdmin), cfg.Accounts.UpdateProfile)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/customers", cfg.Accounts.ListCustomers)
	admin.Get("/professionals", cfg.Accounts.ListProfessionals)
	admin.Post("/professionals/:profileID/approval", cfg.Accounts.SetApproval)
	admin.Post("/users/:id/deactivate", cfg.Accounts.DeactivateUser)
	admin.Delete("/users/:id", cfg.Accounts.DeleteUser)
	admin.Post("/exports", cfg.Tasks.TriggerExport)
	admin.Get("/exports/:filename", cfg.Tasks.DownloadExport)
	admin.Get("/tasks/:id", cfg.Tasks.GetResult)
}
