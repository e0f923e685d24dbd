package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/picflux/picflux/app/models"
	"github.com/picflux/picflux/app/repository"
)

// HandleOAuthLogin starts the OAuth flow for the provider in the URL.
func HandleOAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the OAuth flow, linking or creating the
// local account, and logs the user in.
func HandleOAuthCallback(c *fiber.Ctx) error {
	gothUser, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Printf("oauth callback failed: %v", err)
		fm := fiber.Map{"type": "error", "message": "Sign-in with " + c.Params("provider") + " failed"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	user, err := resolveOAuthUser(gothUser)
	if err != nil {
		log.Printf("oauth account resolution failed: %v", err)
		fm := fiber.Map{"type": "error", "message": "Could not sign you in, please try again"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := establishSession(c, user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Could not create session"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{"type": "success", "message": "Welcome, " + user.Name + "!"}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// resolveOAuthUser maps an external identity to a local user, creating the
// link and, if needed, the account on first sign-in.
func resolveOAuthUser(gothUser goth.User) (*models.User, error) {
	repos := repository.GetGlobalFactory()
	accountRepo := repos.GetProviderAccountRepository()
	userRepo := repos.GetUserRepository()

	if account, err := accountRepo.GetByProvider(gothUser.Provider, gothUser.UserID); err == nil {
		return userRepo.GetByID(account.UserID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := strings.TrimSpace(gothUser.Email)
	if email == "" {
		return nil, errors.New("provider returned no email address")
	}

	user, err := userRepo.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := strings.TrimSpace(gothUser.Name)
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = &models.User{
			UUID:   uuid.NewString(),
			Name:   name,
			Email:  email,
			Role:   models.ROLE_USER,
			Status: models.STATUS_ACTIVE, // provider already verified the email
		}
		if err := user.SetPassword(gothUser.AccessToken + gothUser.UserID); err != nil {
			return nil, err
		}
		if err := userRepo.Create(user); err != nil {
			return nil, err
		}
		if _, err := repos.GetProfileRepository().GetOrCreate(user.ID, user.Email); err != nil {
			log.Printf("failed to create profile for oauth user %d: %v", user.ID, err)
		}
	} else if err != nil {
		return nil, err
	}

	if err := accountRepo.Create(&models.ProviderAccount{
		UserID:         user.ID,
		Provider:       gothUser.Provider,
		ProviderUserID: gothUser.UserID,
		Email:          email,
	}); err != nil {
		log.Printf("failed to link %s account for user %d: %v", gothUser.Provider, user.ID, err)
	}

	return user, nil
}
