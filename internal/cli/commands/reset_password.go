package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storelane-dev/storelane/internal/cli/session"
)

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a forgotten password",
		Long: `Reset a forgotten password.

The server emails a 6-digit code to the address you provide. Entering the
code unlocks a single-use reset ticket; the new password is accepted only
with that ticket. Resetting does not log you in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (will prompt if not provided)")

	return cmd
}

func runResetPassword(cmd *cobra.Command, email string) error {
	mgr, _, err := newSessionManager()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := ensureAnonymous(ctx, mgr); err != nil {
		return err
	}

	if email == "" {
		if email, err = promptLine("Email"); err != nil {
			return err
		}
	}

	flow := session.NewPasswordResetFlow(mgr)
	if err := flow.Start(ctx, email); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	fmt.Println("If the account exists, a reset code has been sent.")

	if err := completeWithOTP(func(code string) error {
		return flow.VerifyOTP(ctx, code)
	}, func() error {
		return flow.Resend(ctx)
	}); err != nil {
		return err
	}

	password, err := promptPassword("New password")
	if err != nil {
		return err
	}
	confirmPassword, err := promptPassword("Confirm new password")
	if err != nil {
		return err
	}

	if err := flow.Complete(ctx, password, confirmPassword); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	fmt.Println("✓ Password updated. Run 'storelane login' to sign in.")
	return nil
}
