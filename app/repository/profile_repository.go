package repository

import (
	"github.com/picflux/picflux/app/models"
	"gorm.io/gorm"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetOrCreate returns the profile for a user, creating it with defaults if missing
func (r *profileRepository) GetOrCreate(userID uint, email string) (*models.UserProfile, error) {
	return models.GetOrCreateUserProfile(r.db, userID, email)
}
