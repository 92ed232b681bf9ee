package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pizzashop/order-service/internal/api/http/handlers"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Docs      *handlers.DocsHandler
	Auth      *handlers.AuthHandler
	Order     *handlers.OrderHandler
	Franchise *handlers.FranchiseHandler
	Guard     *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	guard := cfg.Guard

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/docs", cfg.Docs.Index)

	authGroup := app.Group("/auth")
	authGroup.Post("/", cfg.Auth.Register)
	authGroup.Put("/", cfg.Auth.Login)
	authGroup.Delete("/", guard.RequireAuth(), cfg.Auth.Logout)
	authGroup.Put("/:userId", guard.RequireAuth(), guard.RequireSelfOrAdmin("userId"), cfg.Auth.UpdateUser)

	orderGroup := app.Group("/order")
	orderGroup.Get("/menu", cfg.Order.GetMenu)
	orderGroup.Put("/menu", guard.RequireAuth(), guard.RequireRole(domain.RoleAdmin), cfg.Order.AddMenuItem)
	orderGroup.Get("/", guard.RequireAuth(), cfg.Order.ListOrders)
	orderGroup.Post("/", guard.RequireAuth(), cfg.Order.CreateOrder)

	franchiseGroup := app.Group("/franchise")
	franchiseGroup.Get("/", cfg.Franchise.List)
	franchiseGroup.Post("/", guard.RequireAuth(), guard.RequireRole(domain.RoleAdmin), cfg.Franchise.Create)
	franchiseGroup.Get("/:userId", guard.RequireAuth(), guard.RequireSelfOrAdmin("userId"), cfg.Franchise.ListForUser)
	franchiseGroup.Delete("/:franchiseId", guard.RequireAuth(), guard.RequireRole(domain.RoleAdmin), cfg.Franchise.Delete)
	franchiseGroup.Post("/:franchiseId/store", guard.RequireAuth(), cfg.Franchise.CreateStore)
	franchiseGroup.Delete("/:franchiseId/store/:storeId", guard.RequireAuth(), cfg.Franchise.DeleteStore)
}
