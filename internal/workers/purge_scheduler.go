package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/storelane-dev/storelane/internal/models"
	"github.com/storelane-dev/storelane/internal/otp"
)

// StartPurgeScheduler periodically deletes expired OTP codes and dead reset
// tickets according to a cron expression. Runs until the process exits.
func StartPurgeScheduler(db *gorm.DB, otpService *otp.Service, schedule string, logger zerolog.Logger) {
	// Parse cron expression (standard 5-field format: minute hour day-of-month month day-of-week)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid purge schedule - purge disabled")
		return
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then on schedule
	runPurge(db, otpService, logger)
	next := sched.Next(time.Now())

	for range ticker.C {
		if time.Now().Before(next) {
			continue
		}
		runPurge(db, otpService, logger)
		next = sched.Next(time.Now())
	}
}

func runPurge(db *gorm.DB, otpService *otp.Service, logger zerolog.Logger) {
	codes, err := otpService.PurgeExpired()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to purge expired OTP codes")
	}

	// Reset tickets are dead once used or past their expiry
	res := db.Where("used_at IS NOT NULL OR expires_at < ?", time.Now()).
		Delete(&models.ResetTicket{})
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("Failed to purge reset tickets")
		return
	}

	if codes > 0 || res.RowsAffected > 0 {
		logger.Info().
			Int64("otp_codes", codes).
			Int64("reset_tickets", res.RowsAffected).
			Msg("Purged expired auth records")
	}
}
