package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Tabs     TabManager
	Receipts ports.ReceiptGenerator
	Clock    clock.Clock
	Log      zerolog.Logger
}

// Router registra las rutas de la API. Toda ruta salvo POST /api/tabs se resuelve contra la
// pestaña indicada en X-Tab-ID.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	api := app.Group("/api")

	tabHandler := NewTabHandler(deps.Tabs, deps.Log)
	api.Post("/tabs", tabHandler.Open)

	inTab := api.Group("/", TabMiddleware(deps.Tabs))
	inTab.Get("/tabs/current", tabHandler.Current)
	inTab.Delete("/tabs/current", tabHandler.Close)

	// Auth (la sesión es de la pestaña)
	authHandler := NewAuthHandler(deps.Clock, deps.Log)
	inTab.Post("/auth/register", authHandler.Register)
	inTab.Post("/auth/login", authHandler.Login)
	inTab.Post("/auth/logout", authHandler.Logout)
	inTab.Get("/auth/me", authHandler.Me)
	inTab.Put("/auth/me", RequireAuth(), authHandler.UpdateMe)

	// Catálogo (público)
	productHandler := NewProductHandler(deps.Log)
	categoryHandler := NewCategoryHandler(deps.Log)
	inTab.Get("/products", productHandler.List)
	inTab.Get("/products/:id", productHandler.GetByID)
	inTab.Get("/categories", categoryHandler.List)

	// Carrito y pedidos del cliente
	cartHandler := NewCartHandler(deps.Log)
	cart := inTab.Group("/cart", RequireAuth())
	cart.Get("/", cartHandler.Get)
	cart.Delete("/", cartHandler.Clear)
	cart.Post("/items", cartHandler.AddItem)
	cart.Patch("/items/:productId", cartHandler.UpdateItem)
	cart.Delete("/items/:productId", cartHandler.RemoveItem)

	orderHandler := NewOrderHandler(deps.Receipts, deps.Log)
	orders := inTab.Group("/orders", RequireAuth())
	orders.Post("/", orderHandler.Checkout)
	orders.Get("/", orderHandler.Mine)
	orders.Get("/:numero/receipt", orderHandler.Receipt)

	// Repartidor
	deliveries := inTab.Group("/deliveries", RequireRole(entity.RoleRepartidor))
	deliveries.Get("/", orderHandler.Deliveries)
	deliveries.Put("/availability", orderHandler.Availability)
	deliveries.Post("/:numero/start", orderHandler.StartRoute)
	deliveries.Post("/:numero/deliver", orderHandler.Deliver)

	// Administración
	admin := inTab.Group("/admin", RequireRole(entity.RoleAdmin))

	admin.Post("/products", productHandler.Create)
	admin.Get("/products/low-stock", productHandler.LowStock)
	admin.Put("/products/:id", productHandler.Update)
	admin.Delete("/products/:id", productHandler.Delete)
	admin.Post("/products/:id/stock", productHandler.AddStock)

	admin.Post("/categories", categoryHandler.Create)
	admin.Delete("/categories/:id", categoryHandler.Delete)

	admin.Get("/orders", orderHandler.List)
	admin.Put("/orders/:id/assign", orderHandler.Assign)
	admin.Post("/orders/:numero/cancel", orderHandler.Cancel)

	userHandler := NewUserHandler(deps.Clock, deps.Log)
	admin.Get("/users", userHandler.List)
	admin.Post("/users", userHandler.Create)
	admin.Get("/users/:id", userHandler.GetByID)
	admin.Put("/users/:id", userHandler.Update)
	admin.Delete("/users/:id", userHandler.Delete)
	admin.Put("/users/:id/availability", userHandler.SetAvailability)

	admin.Get("/dashboard", NewDashboardHandler(deps.Log).GetSummary)
}
