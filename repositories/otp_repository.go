package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/radcool22/meditrack/models"
)

// OtpRepository handles pending one-time passcode records.
type OtpRepository struct {
	db *gorm.DB
}

// NewOtpRepository creates a new OTP repository.
func NewOtpRepository(db *gorm.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

// Issue replaces any pending code for the phone number with a new one.
// The delete and insert run in a single transaction so a number can never
// hold two live codes.
func (r *OtpRepository) Issue(phone, code string, expiresAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ?", phone).Delete(&models.OtpRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.OtpRecord{
			Phone:     phone,
			Code:      code,
			ExpiresAt: expiresAt,
		}).Error
	})
}

// Consume deletes the record matching phone, code and a live expiry,
// reporting whether one was consumed. The conditional delete is a single
// statement, so two racing verifications for the same code cannot both
// succeed.
func (r *OtpRepository) Consume(phone, code string, now time.Time) (bool, error) {
	res := r.db.Where("phone = ? AND code = ? AND expires_at > ?", phone, code, now).
		Delete(&models.OtpRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteExpired removes every record whose expiry has passed. Idempotent.
func (r *OtpRepository) DeleteExpired(now time.Time) error {
	return r.db.Where("expires_at < ?", now).Delete(&models.OtpRecord{}).Error
}
