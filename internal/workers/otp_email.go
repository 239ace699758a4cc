package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/storelane-dev/storelane/internal/mailer"
	"github.com/storelane-dev/storelane/internal/tasks"
)

// HandleSendOTPEmail delivers a one-time passcode email.
// Returning an error lets asynq retry delivery with backoff.
func HandleSendOTPEmail(ctx context.Context, task *asynq.Task, sender mailer.Sender, logger zerolog.Logger) error {
	payload, err := tasks.ParseSendOTPEmailPayload(task)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid OTP email payload")
		// Malformed payloads will never succeed, do not retry
		return asynq.SkipRetry
	}

	if err := sender.SendOTP(payload.Email, payload.Code, payload.Purpose); err != nil {
		logger.Error().
			Err(err).
			Str("email", payload.Email).
			Str("purpose", payload.Purpose).
			Msg("Failed to send OTP email")
		return err
	}

	logger.Info().
		Str("email", payload.Email).
		Str("purpose", payload.Purpose).
		Msg("OTP email sent")
	return nil
}
