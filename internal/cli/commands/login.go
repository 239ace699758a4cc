package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Storelane server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set STORELANE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set STORELANE_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("STORELANE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("STORELANE_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or STORELANE_EMAIL env var)")
	}

	mgr, _, err := newSessionManager()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := ensureAnonymous(ctx, mgr); err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	if err := mgr.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	state := mgr.Current()
	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s %s (%s)\n", state.User.FirstName, state.User.LastName, state.User.Email)

	return nil
}
