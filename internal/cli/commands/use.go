package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/storelane-dev/storelane/internal/cli/userconfig"
)

// NewUseCmd creates the use command
func NewUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <api-url>",
		Short: "Point the CLI at a Storelane server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL := args[0]
			u, err := url.Parse(apiURL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid API URL %q (expected e.g. https://api.example.com)", apiURL)
			}

			if err := userconfig.SetAPIURL(apiURL); err != nil {
				return err
			}

			fmt.Printf("✓ Using %s\n", apiURL)
			return nil
		},
	}
}
