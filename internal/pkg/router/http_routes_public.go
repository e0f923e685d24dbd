package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/picflux/picflux/app/controllers"
	"github.com/picflux/picflux/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/logout/:provider", func(c *fiber.Ctx) error {
		_ = gothfiber.Logout(c)
		return c.Redirect("/login", fiber.StatusSeeOther)
	})
}
