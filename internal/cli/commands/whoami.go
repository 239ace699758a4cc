package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently signed-in user",
		RunE:  runWhoami,
	}
}

func runWhoami(cmd *cobra.Command, args []string) error {
	mgr, _, err := newSessionManager()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := ensureAuthenticated(ctx, mgr); err != nil {
		return err
	}

	user := mgr.Current().User
	fmt.Printf("%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	if user.IsEmailVerified {
		fmt.Println("Email: verified")
	} else {
		fmt.Println("Email: not verified")
	}
	return nil
}
