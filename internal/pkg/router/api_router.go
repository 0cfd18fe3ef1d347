package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/befree-edtech/befree-backend/app/controllers"
	"github.com/befree-edtech/befree-backend/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Use(middleware.UserContextMiddleware())

	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Get("/me", middleware.RequireAPIAuth, controllers.HandleMe)

	plans := v1.Group("/plans")
	plans.Get("/", controllers.HandleListPlans)
	plans.Get("/:id", controllers.HandleGetPlan)

	orders := v1.Group("/orders")
	orders.Post("/", controllers.HandleCreateOrder)
	// my-orders must be registered before /:id so it is not captured as an id
	orders.Get("/my-orders", middleware.RequireAPIAuth, controllers.HandleMyOrders)
	orders.Get("/:id", controllers.HandleGetOrder)
	orders.Get("/:id/verify", controllers.HandleVerifyPayment)
	orders.Post("/:id/refund", middleware.RequireAPIAdmin, controllers.HandleRefundOrder)

	notifications := v1.Group("/notifications", middleware.RequireAPIAuth)
	notifications.Get("/", controllers.HandleListNotifications)
	notifications.Patch("/:id/read", controllers.HandleMarkNotificationRead)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
