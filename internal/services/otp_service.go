package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/anxin/internal/models"
)

const (
	otpValidity    = 10 * time.Minute
	otpMaxAttempts = 5
)

// Errors surfaced by OTP verification.
var (
	ErrOtpNotFound    = errors.New("otp not found or expired")
	ErrOtpMaxAttempts = errors.New("maximum verification attempts exceeded")
	ErrOtpMismatch    = errors.New("invalid otp code")
)

// OtpService issues and verifies email verification codes used for manual
// binding resolution.
type OtpService struct {
	db     *gorm.DB
	mailer Mailer
	now    func() time.Time
}

// NewOtpService creates an OtpService.
func NewOtpService(db *gorm.DB, mailer Mailer) *OtpService {
	return &OtpService{db: db, mailer: mailer, now: time.Now}
}

// Send generates a fresh 6-digit code for the email, stores it and mails
// it out.
func (s *OtpService) Send(ctx context.Context, email string) error {
	if s.mailer == nil {
		return fmt.Errorf("otp delivery requires mail credentials")
	}

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	record := models.OtpCode{
		Email:       email,
		Code:        code,
		MaxAttempts: otpMaxAttempts,
		ExpiresAt:   s.now().UTC().Add(otpValidity),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	if err := s.mailer.SendOtpCode(email, code, otpValidity); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	log.Printf("[OTP] Code issued for %s", email)
	return nil
}

// Verify checks a submitted code against the newest unverified, unexpired
// record for the email. The attempt counter is incremented before the
// comparison so failed guesses always count.
func (s *OtpService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrOtpNotFound
	}

	var record models.OtpCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND verified = ? AND expires_at > ?", email, false, s.now().UTC()).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOtpNotFound
		}
		return err
	}

	if record.Attempts >= record.MaxAttempts {
		return ErrOtpMaxAttempts
	}

	if err := s.db.WithContext(ctx).
		Model(&models.OtpCode{}).
		Where("id = ?", record.ID).
		Update("attempts", record.Attempts+1).Error; err != nil {
		log.Printf("[OTP] Failed to record attempt for %s: %v", email, err)
	}

	if record.Code != code {
		return ErrOtpMismatch
	}

	verifiedAt := s.now().UTC()
	return s.db.WithContext(ctx).
		Model(&models.OtpCode{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"verified":    true,
			"verified_at": verifiedAt,
		}).Error
}

// generateOtpCode returns a cryptographically random 6-digit code.
func generateOtpCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
