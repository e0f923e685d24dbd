package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/picflux/picflux/internal/pkg/usercontext"
)

var validate = validator.New()

func isLoggedIn(c *fiber.Ctx) bool {
	fromProtected, _ := c.Locals(usercontext.KeyFromProtected).(bool)
	return fromProtected
}

// pageData assembles the common view model every rendered page needs.
func pageData(c *fiber.Ctx, title string) fiber.Map {
	userCtx := usercontext.GetUserContext(c)
	csrfToken, _ := c.Locals("csrf").(string)
	return fiber.Map{
		"Title":      title,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Username":   userCtx.Username,
		"Plan":       userCtx.Plan,
		"Flash":      flash.Get(c),
		"CSRFToken":  csrfToken,
	}
}
