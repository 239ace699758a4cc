package otp

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storelane-dev/storelane/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.OTPCode{}))

	svc := NewService(db, 10*time.Minute, 3, time.Minute)
	svc.SetGenerator(func() (string, error) { return "123456", nil })
	return svc
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)

	code, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)
	require.Equal(t, "123456", code)

	require.NoError(t, svc.Verify("a@example.com", models.PurposeRegister, code))

	// Consumed on success; a second redemption fails
	assert.ErrorIs(t, svc.Verify("a@example.com", models.PurposeRegister, code), ErrCodeInvalid)
}

func TestVerifyWrongCodeBurnsAttempts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Verify("a@example.com", models.PurposeRegister, "000000"), ErrCodeInvalid)
	}

	// The attempt cap locks out even the correct code
	assert.ErrorIs(t, svc.Verify("a@example.com", models.PurposeRegister, "123456"), ErrTooManyAttempts)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return time.Now().Add(11 * time.Minute) })
	assert.ErrorIs(t, svc.Verify("a@example.com", models.PurposeRegister, "123456"), ErrCodeExpired)
}

func TestIssueThrottlesReissue(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)

	_, err = svc.Issue("a@example.com", models.PurposeRegister)
	assert.ErrorIs(t, err, ErrResendTooSoon)

	// A different purpose for the same email is independent
	_, err = svc.Issue("a@example.com", models.PurposeResetPassword)
	assert.NoError(t, err)

	// After the interval a fresh code replaces the old one
	svc.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })
	svc.SetGenerator(func() (string, error) { return "654321", nil })

	code, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)
	require.Equal(t, "654321", code)

	assert.ErrorIs(t, svc.Verify("a@example.com", models.PurposeRegister, "123456"), ErrCodeInvalid)
	assert.NoError(t, svc.Verify("a@example.com", models.PurposeRegister, "654321"))
}

func TestPurgeExpired(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue("a@example.com", models.PurposeRegister)
	require.NoError(t, err)
	_, err = svc.Issue("b@example.com", models.PurposeRegister)
	require.NoError(t, err)

	// Nothing has expired yet
	purged, err := svc.PurgeExpired()
	require.NoError(t, err)
	assert.Zero(t, purged)

	svc.SetClock(func() time.Time { return time.Now().Add(time.Hour) })

	purged, err = svc.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 32; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, char := range code {
			require.True(t, char >= '0' && char <= '9')
		}
	}
}
