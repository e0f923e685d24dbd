package repository

import (
	"github.com/picflux/picflux/app/models"
	"gorm.io/gorm"
)

// providerAccountRepository implements the ProviderAccountRepository interface
type providerAccountRepository struct {
	db *gorm.DB
}

// NewProviderAccountRepository creates a new provider account repository instance
func NewProviderAccountRepository(db *gorm.DB) ProviderAccountRepository {
	return &providerAccountRepository{db: db}
}

// GetByProvider retrieves an OAuth account link by provider and remote user ID
func (r *providerAccountRepository) GetByProvider(provider, providerUserID string) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Create creates a new OAuth account link
func (r *providerAccountRepository) Create(account *models.ProviderAccount) error {
	return r.db.Create(account).Error
}
