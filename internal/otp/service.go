// Package otp issues and redeems emailed one-time passcodes.
//
// Codes are stored bcrypt-hashed with a TTL and a failed-attempt cap. One
// live code exists per (email, purpose); issuing replaces the previous one.
// The reissue interval enforced here is the authoritative rate limit — the
// CLI's cooldown is only a courtesy.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/storelane-dev/storelane/internal/models"
)

const codeLength = 6

var (
	ErrResendTooSoon   = errors.New("a code was sent recently, try again later")
	ErrCodeInvalid     = errors.New("invalid or unknown code")
	ErrCodeExpired     = errors.New("code has expired")
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
)

// Service manages OTP lifecycle against the database
type Service struct {
	db             *gorm.DB
	ttl            time.Duration
	maxAttempts    int
	resendInterval time.Duration

	// Overridable in tests for deterministic codes and clocks
	generate func() (string, error)
	now      func() time.Time
}

// NewService creates an OTP service
func NewService(db *gorm.DB, ttl time.Duration, maxAttempts int, resendInterval time.Duration) *Service {
	return &Service{
		db:             db,
		ttl:            ttl,
		maxAttempts:    maxAttempts,
		resendInterval: resendInterval,
		generate:       generateCode,
		now:            time.Now,
	}
}

// SetGenerator overrides code generation (tests only)
func (s *Service) SetGenerator(fn func() (string, error)) {
	s.generate = fn
}

// SetClock overrides the time source (tests only)
func (s *Service) SetClock(fn func() time.Time) {
	s.now = fn
}

// Issue creates a fresh code for (email, purpose), replacing any previous one.
// Returns the plaintext code for delivery; only its hash is persisted.
// Fails with ErrResendTooSoon inside the reissue interval.
func (s *Service) Issue(email, purpose string) (string, error) {
	now := s.now()

	var existing models.OTPCode
	err := s.db.Where("email = ? AND purpose = ?", email, purpose).First(&existing).Error
	if err == nil {
		if now.Sub(existing.LastSentAt) < s.resendInterval {
			return "", ErrResendTooSoon
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to check existing code: %w", err)
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	record := models.OTPCode{
		Email:      email,
		Purpose:    purpose,
		CodeHash:   string(hash),
		ExpiresAt:  now.Add(s.ttl),
		LastSentAt: now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ?", email, purpose).
			Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

// Verify redeems a code. A correct code is consumed and cannot be redeemed
// twice; a wrong code burns an attempt.
func (s *Service) Verify(email, purpose, code string) error {
	now := s.now()

	var record models.OTPCode
	err := s.db.Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("failed to load code: %w", err)
	}

	if now.After(record.ExpiresAt) {
		return ErrCodeExpired
	}
	if record.Attempts >= s.maxAttempts {
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		if err := s.db.Model(&record).Update("attempts", record.Attempts+1).Error; err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		return ErrCodeInvalid
	}

	if err := s.db.Model(&record).Update("consumed_at", now).Error; err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}

// PurgeExpired deletes codes whose validity window has passed.
// Consumed codes are removed as well once expired.
func (s *Service) PurgeExpired() (int64, error) {
	res := s.db.Where("expires_at < ?", s.now()).Delete(&models.OTPCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// generateCode returns a uniformly random numeric code, zero-padded to codeLength
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
