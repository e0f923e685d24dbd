package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/picflux/picflux/app/models"
	"github.com/picflux/picflux/app/repository"
	"github.com/picflux/picflux/internal/pkg/database"
	"github.com/picflux/picflux/internal/pkg/editor"
	"github.com/picflux/picflux/internal/pkg/metrics/counter"
	"github.com/picflux/picflux/internal/pkg/storage"
	"github.com/picflux/picflux/internal/pkg/usercontext"
)

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Image  string `json:"image" validate:"required"`
}

// HandleGenerate proxies an image edit to the model provider. One credit is
// consumed per successful edit. The route is guarded by
// middleware.RequireAPISessionAuth, so only logged-in sessions reach it.
func HandleGenerate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prompt and image are required"})
	}

	profile, err := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(userCtx.UserID, userCtx.Email)
	if err != nil {
		log.Printf("[generate] profile load failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not load your account"})
	}
	if profile.Credits <= 0 {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "You are out of credits", "credits": 0})
	}

	image, err := editor.DownscaleDataURL(req.Image, editor.MaxInputDimension)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not read the uploaded image"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
	defer cancel()

	client := editor.NewClientFromEnv()
	images, err := client.EditImage(ctx, strings.TrimSpace(req.Prompt), image)
	if err != nil {
		log.Printf("[generate] edit failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Image generation failed, please try again"})
	}
	if len(images) == 0 {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "The model returned no image"})
	}

	// Credit is consumed only after a successful generation, with the same
	// atomic increment the webhook grant uses.
	if err := database.GetDB().Model(&models.UserProfile{}).
		Where("id = ? AND credits > 0", profile.ID).
		UpdateColumn("credits", gorm.Expr("credits - ?", 1)).Error; err != nil {
		log.Printf("[generate] credit debit failed for profile %d: %v", profile.ID, err)
	}
	if err := counter.AddEdit(profile.ID); err != nil {
		log.Printf("[generate] edit counter failed for profile %d: %v", profile.ID, err)
	}

	images = persistImages(ctx, images)

	return c.JSON(fiber.Map{
		"images":  images,
		"credits": profile.Credits - 1,
	})
}

// persistImages uploads data-URL results to S3 when configured so the
// browser gets small stable URLs. Upload failures fall back to the data URL.
func persistImages(ctx context.Context, images []string) []string {
	if !storage.Enabled() {
		return images
	}
	s3Client, err := storage.NewClientFromEnv(ctx)
	if err != nil {
		log.Printf("[generate] s3 client unavailable: %v", err)
		return images
	}

	out := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s3Client.UploadDataURL(ctx, img, "edits")
		if err != nil {
			log.Printf("[generate] s3 upload failed: %v", err)
			out = append(out, img)
			continue
		}
		out = append(out, url)
	}
	return out
}
