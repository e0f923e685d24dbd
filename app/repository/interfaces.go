package repository

import (
	"github.com/picflux/picflux/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
}

// ProfileRepository defines the interface for user profile operations
type ProfileRepository interface {
	GetOrCreate(userID uint, email string) (*models.UserProfile, error)
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	GetByUserID(userID uint, offset, limit int) ([]models.Payment, error)
}

// ProviderAccountRepository links OAuth identities to local users
type ProviderAccountRepository interface {
	GetByProvider(provider, providerUserID string) (*models.ProviderAccount, error)
	Create(account *models.ProviderAccount) error
}
