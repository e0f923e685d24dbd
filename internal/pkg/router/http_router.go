package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/picflux/picflux/internal/pkg/middleware"
	"github.com/picflux/picflux/internal/pkg/oauth"
	"github.com/picflux/picflux/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; this is a
	// pass-through kept for route readability.
	return c.Next()
}
