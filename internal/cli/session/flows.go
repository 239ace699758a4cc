package session

import (
	"context"
	"errors"
)

// PendingRegistration is the form input captured after initiation and
// consumed by completion. Held in memory only, never persisted.
type PendingRegistration struct {
	Email           string
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
}

// RegistrationStep is a state in the two-phase registration flow
type RegistrationStep int

const (
	RegistrationIdle RegistrationStep = iota
	RegistrationOTPSent
	RegistrationAuthenticated
)

var errFlowState = errors.New("operation not valid in the current step")

// RegistrationFlow drives idle → otp-sent → authenticated. A step advances
// only on a successful response; failures keep the step and surface the error.
type RegistrationFlow struct {
	mgr     *Manager
	step    RegistrationStep
	pending PendingRegistration
}

// NewRegistrationFlow starts an idle registration flow
func NewRegistrationFlow(mgr *Manager) *RegistrationFlow {
	return &RegistrationFlow{mgr: mgr}
}

// Step returns the current flow state
func (f *RegistrationFlow) Step() RegistrationStep {
	return f.step
}

// Start submits the registration form and requests the emailed code
func (f *RegistrationFlow) Start(ctx context.Context, input PendingRegistration) error {
	if f.step != RegistrationIdle {
		return errFlowState
	}
	if err := f.mgr.InitiateRegistration(ctx, input); err != nil {
		return err
	}
	f.pending = input
	f.step = RegistrationOTPSent
	return nil
}

// Complete redeems the emailed code; on success the session is authenticated
// and the pending form input is discarded
func (f *RegistrationFlow) Complete(ctx context.Context, otpCode string) error {
	if f.step != RegistrationOTPSent {
		return errFlowState
	}
	if err := f.mgr.CompleteRegistration(ctx, f.pending, otpCode); err != nil {
		return err
	}
	f.pending = PendingRegistration{}
	f.step = RegistrationAuthenticated
	return nil
}

// Resend reissues the registration code, subject to the client cooldown
func (f *RegistrationFlow) Resend(ctx context.Context) error {
	if f.step != RegistrationOTPSent {
		return errFlowState
	}
	return f.mgr.ResendOTP(ctx, f.pending.Email, authPurposeRegister)
}

// PasswordResetStep is a state in the three-phase password reset flow
type PasswordResetStep int

const (
	PasswordResetIdle PasswordResetStep = iota
	PasswordResetOTPSent
	PasswordResetOTPVerified
	PasswordResetCompleted
)

// PasswordResetFlow drives idle → otp-sent → otp-verified → completed.
// The ticket obtained at otp-verified is the only credential the final step
// accepts; it grants no session access.
type PasswordResetFlow struct {
	mgr    *Manager
	step   PasswordResetStep
	email  string
	ticket string
}

// NewPasswordResetFlow starts an idle reset flow
func NewPasswordResetFlow(mgr *Manager) *PasswordResetFlow {
	return &PasswordResetFlow{mgr: mgr}
}

// Step returns the current flow state
func (f *PasswordResetFlow) Step() PasswordResetStep {
	return f.step
}

// Start requests a reset code for the email
func (f *PasswordResetFlow) Start(ctx context.Context, email string) error {
	if f.step != PasswordResetIdle {
		return errFlowState
	}
	if err := f.mgr.InitiatePasswordReset(ctx, email); err != nil {
		return err
	}
	f.email = email
	f.step = PasswordResetOTPSent
	return nil
}

// VerifyOTP redeems the code for the single-use reset ticket
func (f *PasswordResetFlow) VerifyOTP(ctx context.Context, otpCode string) error {
	if f.step != PasswordResetOTPSent {
		return errFlowState
	}
	ticket, err := f.mgr.VerifyPasswordResetOTP(ctx, f.email, otpCode)
	if err != nil {
		return err
	}
	f.ticket = ticket
	f.step = PasswordResetOTPVerified
	return nil
}

// Complete submits the new password with the held ticket. The ticket is
// discarded afterwards; the caller routes to login.
func (f *PasswordResetFlow) Complete(ctx context.Context, password, confirmPassword string) error {
	if f.step != PasswordResetOTPVerified {
		return errFlowState
	}
	if err := f.mgr.CompletePasswordReset(ctx, f.ticket, password, confirmPassword); err != nil {
		return err
	}
	f.ticket = ""
	f.step = PasswordResetCompleted
	return nil
}

// Resend reissues the reset code, subject to the client cooldown
func (f *PasswordResetFlow) Resend(ctx context.Context) error {
	if f.step != PasswordResetOTPSent {
		return errFlowState
	}
	return f.mgr.ResendOTP(ctx, f.email, authPurposeReset)
}
