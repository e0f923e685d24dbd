package billing

import (
	"github.com/picflux/picflux/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreatePaymentIfNotExists(payment *models.Payment) (bool, *models.Payment, error)
	GetPaymentBySessionID(sessionID string) (*models.Payment, error)
	FindProfileByEmail(email string) (*models.UserProfile, error)
	AddCredits(profileID uint, credits int) error
	AssignPaymentUser(paymentID, userID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreatePaymentIfNotExists inserts the payment unless a row with the same
// session id already exists. The uniqueness constraint on session_id is the
// dedup mechanism for redelivered webhooks; a conflicting insert is a
// successfully-handled duplicate, not an error.
func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, *models.Payment, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Payment
	if err := r.db.Where("session_id = ?", payment.SessionID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetPaymentBySessionID(sessionID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindProfileByEmail(email string) (*models.UserProfile, error) {
	var up models.UserProfile
	if err := r.db.Where("email = ?", email).Order("id").First(&up).Error; err != nil {
		return nil, err
	}
	return &up, nil
}

// AddCredits grants credits through an atomic increment at the storage
// layer, so concurrent grants for the same profile cannot lose updates.
func (r *gormRepository) AddCredits(profileID uint, credits int) error {
	return r.db.Model(&models.UserProfile{}).
		Where("id = ?", profileID).
		UpdateColumn("credits", gorm.Expr("credits + ?", credits)).Error
}

func (r *gormRepository) AssignPaymentUser(paymentID, userID uint) error {
	return r.db.Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("user_id", userID).Error
}
