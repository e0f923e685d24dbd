package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/picflux/picflux/app/controllers"
	"github.com/picflux/picflux/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Provider webhooks are exempt from rate limiting so redelivery bursts
	// are never dropped; the handler is idempotent anyway.
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 60,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
	}))

	api.Post("/checkout", controllers.HandleCheckout)
	api.Post("/webhooks/creem", controllers.HandleCreemWebhook)
	api.Get("/verify-payment", controllers.HandleVerifyPayment)
	api.Get("/payment-status", controllers.HandlePaymentStatus)
	api.Get("/payments", middleware.RequireAPISessionAuth, controllers.HandlePaymentHistory)
	api.Post("/generate", middleware.RequireAPISessionAuth, controllers.HandleGenerate)
	api.Post("/test-webhook", controllers.HandleTestWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
