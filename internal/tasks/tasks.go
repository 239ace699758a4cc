package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// OTP email delivery (enqueued by the API server, handled by the worker)
	TypeSendOTPEmail = "email:send_otp"
)

// SendOTPEmailPayload carries everything the worker needs to deliver a code
type SendOTPEmailPayload struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

// NewSendOTPEmailTask creates a task to deliver a one-time passcode by email
func NewSendOTPEmailTask(email, code, purpose string) (*asynq.Task, error) {
	payload, err := json.Marshal(SendOTPEmailPayload{
		Email:   email,
		Code:    code,
		Purpose: purpose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendOTPEmail, payload, asynq.Queue("critical")), nil
}

// ParseSendOTPEmailPayload parses task payload from an Asynq task
func ParseSendOTPEmailPayload(task *asynq.Task) (SendOTPEmailPayload, error) {
	var payload SendOTPEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
