package models

import "time"

// OtpCode is an email verification code used for manual binding resolution.
type OtpCode struct {
	BaseModel
	Email       string     `gorm:"index" json:"email"`
	Code        string     `json:"-"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Verified    bool       `json:"verified"`
	VerifiedAt  *time.Time `json:"verified_at"`
}
