package models

import (
	"time"

	"gorm.io/gorm"
)

// FreePlanCredits is the monthly allotment new accounts start with.
const FreePlanCredits = 2

// UserProfile stores per-user plan info and the credit balance consumed by
// image edits. Credits are only ever changed through atomic increments
// (see billing.Repository.AddCredits); the struct field is a read snapshot.
type UserProfile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex" json:"user_id"`
	Email     string         `gorm:"type:varchar(200);index" json:"email"`
	Plan      string         `gorm:"type:varchar(50);default:'free'" json:"plan"`
	Credits   int            `gorm:"not null;default:2" json:"credits"`
	EditCount int64          `gorm:"not null;default:0" json:"edit_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateUserProfile returns existing profile or creates defaults.
// The email is denormalized onto the profile because the payment webhook
// resolves accounts by customer email.
func GetOrCreateUserProfile(db *gorm.DB, userID uint, email string) (*UserProfile, error) {
	var up UserProfile
	if err := db.Where("user_id = ?", userID).First(&up).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			up = UserProfile{UserID: userID, Email: email, Plan: "free", Credits: FreePlanCredits}
			if err := db.Create(&up).Error; err != nil {
				return nil, err
			}
			return &up, nil
		}
		return nil, err
	}
	if email != "" && up.Email != email {
		up.Email = email
		if err := db.Save(&up).Error; err != nil {
			return nil, err
		}
	}
	return &up, nil
}
