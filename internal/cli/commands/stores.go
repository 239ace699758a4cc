package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStoresCmd creates the stores command group
func NewStoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Manage retail stores",
	}

	cmd.AddCommand(newStoresListCmd())
	cmd.AddCommand(newStoresProductsCmd())

	return cmd
}

func newStoresListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, api, err := newSessionManager()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := ensureAuthenticated(ctx, mgr); err != nil {
				return err
			}

			stores, err := api.ListStores(ctx)
			if err != nil {
				return fmt.Errorf("failed to list stores: %w", err)
			}

			if len(stores) == 0 {
				fmt.Println("No stores found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tPHONE")
			for _, s := range stores {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Address, s.Phone)
			}
			return w.Flush()
		},
	}
}

func newStoresProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <store-id>",
		Short: "List the products stocked at a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, api, err := newSessionManager()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := ensureAuthenticated(ctx, mgr); err != nil {
				return err
			}

			products, err := api.ListProducts(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			if len(products) == 0 {
				fmt.Println("No products found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSKU\tNAME\tPRICE\tQTY")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%d\n", p.ID, p.SKU, p.Name, float64(p.PriceCents)/100, p.Quantity)
			}
			return w.Flush()
		},
	}
}
