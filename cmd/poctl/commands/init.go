package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/service"
)

func newInitCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Args:  cobra.NoArgs,
		Short: "Insert the sample purchase orders into an empty database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withAdmin(cmd.Context(), func(admin *service.AdminService) error {
				return runInit(cmd.Context(), cmd, admin)
			})
		},
	}
}

func runInit(ctx context.Context, cmd *cobra.Command, admin *service.AdminService) error {
	n, err := admin.Init(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		count, err := admin.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database already contains %s purchase orders, skipping.\n", formatNumber(count))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %s sample purchase orders.\n", formatNumber(n))
	return nil
}
