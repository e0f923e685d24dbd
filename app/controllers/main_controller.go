package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/picflux/picflux/app/repository"
	"github.com/picflux/picflux/internal/pkg/usercontext"
)

// HandleStart renders the landing page with the image editor.
func HandleStart(c *fiber.Ctx) error {
	data := pageData(c, "PicFlux - AI Image Editing")

	data["Credits"] = 0
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		if profile, err := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(userCtx.UserID, userCtx.Email); err == nil {
			data["Credits"] = profile.Credits
		}
	}

	return c.Render("home", data)
}

// HandlePricing renders the pricing page with the plan tiers.
func HandlePricing(c *fiber.Ctx) error {
	return c.Render("pricing", pageData(c, "PicFlux - Pricing"))
}

// HandlePaymentSuccess renders the post-checkout success page. The page
// itself polls the payment status API until the webhook lands.
func HandlePaymentSuccess(c *fiber.Ctx) error {
	data := pageData(c, "PicFlux - Payment Successful")
	data["SessionID"] = c.Query("session_id", c.Query("checkout_id"))
	data["OrderID"] = c.Query("order_id")
	return c.Render("payment_success", data)
}
