package models

import "time"

// User represents a verified account, keyed by phone number.
// Users are created on first successful OTP verification and never mutated.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Phone     string    `gorm:"uniqueIndex;not null" json:"phone"`
	Verified  bool      `gorm:"default:false" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// OtpRecord is a pending one-time passcode for a phone number.
// At most one live record exists per phone; issuing a new code replaces it.
type OtpRecord struct {
	ID        uint      `gorm:"primarykey"`
	Phone     string    `gorm:"index;not null"`
	Code      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// Report represents an uploaded medical report and its stored file.
type Report struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title      string    `gorm:"not null" json:"title"`
	Category   *string   `json:"category"`
	ReportDate *string   `json:"report_date"`
	Source     *string   `json:"source"`
	FilePath   string    `gorm:"not null" json:"file_path"`
	FileType   string    `gorm:"not null" json:"file_type"`
	CreatedAt  time.Time `json:"created_at"`
}
