package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/picflux/picflux/app/models"
	"github.com/picflux/picflux/internal/pkg/database"
	"github.com/picflux/picflux/internal/pkg/session"
	"github.com/picflux/picflux/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		setAnonymous(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	email := session.GetSessionValue(c, usercontext.KeyUserEmail)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	// Plan is cached in the session; fall back to the profile row.
	plan := session.GetSessionValue(c, usercontext.KeyUserPlan)
	if plan == "" {
		plan = "free"
		if db := database.GetDB(); db != nil {
			if profile, err := models.GetOrCreateUserProfile(db, userID.(uint), email); err == nil && profile.Plan != "" {
				plan = profile.Plan
			}
		}
	}

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		Email:      email,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
		Plan:       plan,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
}
