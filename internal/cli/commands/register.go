package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storelane-dev/storelane/internal/cli/session"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var email, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long: `Create a new Storelane account.

Registration happens in two steps: the server emails a 6-digit code to the
address you provide, and the account is created once you enter that code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, email, firstName, lastName)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (will prompt if not provided)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name (will prompt if not provided)")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name (will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, email, firstName, lastName string) error {
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
	if firstName == "" {
		if firstName, err = promptLine("First name"); err != nil {
			return err
		}
	}
	if lastName == "" {
		if lastName, err = promptLine("Last name"); err != nil {
			return err
		}
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	confirmPassword, err := promptPassword("Confirm password")
	if err != nil {
		return err
	}

	flow := session.NewRegistrationFlow(mgr)
	if err := flow.Start(ctx, session.PendingRegistration{
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		Password:        password,
		ConfirmPassword: confirmPassword,
	}); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("A verification code has been sent to %s.\n", email)

	if err := completeWithOTP(func(code string) error {
		return flow.Complete(ctx, code)
	}, func() error {
		return flow.Resend(ctx)
	}); err != nil {
		return err
	}

	state := mgr.Current()
	fmt.Println("✓ Account created!")
	fmt.Printf("  User: %s %s (%s)\n", state.User.FirstName, state.User.LastName, state.User.Email)

	return nil
}

// completeWithOTP prompts for the emailed code until the submit callback
// succeeds. Entering "resend" reissues the code instead of submitting.
func completeWithOTP(submit func(code string) error, resend func() error) error {
	for {
		code, err := promptLine("Verification code (or 'resend')")
		if err != nil {
			return err
		}

		if code == "resend" {
			if err := resend(); err != nil {
				fmt.Printf("Could not resend: %v\n", err)
			} else {
				fmt.Println("A new code has been sent.")
			}
			continue
		}

		if err := submit(code); err != nil {
			fmt.Printf("Verification failed: %v\n", err)
			continue
		}
		return nil
	}
}
