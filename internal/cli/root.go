// Package cli implements the storelane command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storelane-dev/storelane/internal/cli/commands"
)

// Version is set at build time via -ldflags
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "storelane",
	Short: "Storelane - multi-store retail management",
	Long: `Storelane is a multi-store retail management platform.

The CLI talks to a Storelane server: sign in, manage your account, and
browse stores and their inventory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewStoresCmd())
	rootCmd.AddCommand(commands.NewUseCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("storelane %s\n", Version)
		},
	}
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
