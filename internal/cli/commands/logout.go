package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored token",
		Long: `Sign out of the Storelane server.

The stored token is always cleared locally, even when the server is
unreachable.`,
		RunE: runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	mgr, _, err := newSessionManager()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := mgr.Initialize(ctx); err != nil {
		return err
	}

	mgr.Logout(ctx)
	fmt.Println("✓ Logged out")
	return nil
}
