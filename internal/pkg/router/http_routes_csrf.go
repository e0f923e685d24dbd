package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/picflux/picflux/app/controllers"
	"github.com/picflux/picflux/internal/pkg/constants"
	"github.com/picflux/picflux/internal/pkg/env"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.HomeRoute, loggedInMiddleware, controllers.HandleStart)
	group.Get(constants.PricingRoute, loggedInMiddleware, controllers.HandlePricing)
	group.Get(constants.PaymentSuccessRoute, loggedInMiddleware, controllers.HandlePaymentSuccess)

	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLoginPage)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegisterPage)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)
}
