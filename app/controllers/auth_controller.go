package controllers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/picflux/picflux/app/models"
	"github.com/picflux/picflux/app/repository"
	"github.com/picflux/picflux/internal/pkg/mail"
	"github.com/picflux/picflux/internal/pkg/session"
	"github.com/picflux/picflux/internal/pkg/usercontext"
)

// HandleAuthLoginPage renders the login form.
func HandleAuthLoginPage(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render("auth/login", pageData(c, "PicFlux - Login"))
}

// HandleAuthLogin processes the login form submission.
func HandleAuthLogin(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(email)
	if err != nil || !user.CheckPassword(password) {
		fm := fiber.Map{"type": "error", "message": "Invalid email or password"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.IsActive() {
		fm := fiber.Map{"type": "error", "message": "Please activate your account first"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := establishSession(c, user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Could not create session"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Printf("failed to update last login for user %d: %v", user.ID, err)
	}

	fm := fiber.Map{"type": "success", "message": "Welcome back!"}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// HandleAuthRegisterPage renders the registration form.
func HandleAuthRegisterPage(c *fiber.Ctx) error {
	if isLoggedIn(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render("auth/register", pageData(c, "PicFlux - Register"))
}

// HandleAuthRegister processes the registration form submission.
func HandleAuthRegister(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	user, err := models.CreateUser(name, email, password)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Please check your input and try again"}
		return flash.WithError(c, fm).Redirect("/register")
	}

	if err := user.GenerateActivationToken(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Registration failed, please try again"}
		return flash.WithError(c, fm).Redirect("/register")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if err := userRepo.Create(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "An account with this email already exists"}
		return flash.WithError(c, fm).Redirect("/register")
	}

	// Profile rows carry the credit balance; create it with the free tier
	// allotment right away so the webhook can match by email later.
	if _, err := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(user.ID, user.Email); err != nil {
		log.Printf("failed to create profile for user %d: %v", user.ID, err)
	}

	if err := mail.SendActivationMail(user.Email, user.Name, user.ActivationToken); err != nil {
		log.Printf("failed to send activation mail to %s: %v", user.Email, err)
	}

	fm := fiber.Map{"type": "success", "message": "Registration successful! Please check your inbox to activate your account."}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthActivate activates an account via the emailed token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		fm := fiber.Map{"type": "error", "message": "Activation token is missing"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Invalid activation token"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := userRepo.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Activation failed, please try again"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{"type": "success", "message": "Account activated, you can log in now"}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Printf("failed to destroy session: %v", err)
		}
	}

	fm := fiber.Map{"type": "success", "message": "Logged out"}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// establishSession stores the logged-in user's identity in the session.
func establishSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyUserEmail, user.Email)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

	if profile, perr := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(user.ID, user.Email); perr == nil {
		sess.Set(usercontext.KeyUserPlan, profile.Plan)
	}

	return sess.Save()
}
