package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/config"
	"github.com/utafrali/purchase-orders/internal/service"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Apply the embedded SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening a PostgreSQL store applies pending migrations.
			return rt.withAdmin(cmd.Context(), func(*service.AdminService) error {
				if rt.cfg.StorageBackend == config.StorageMemory {
					fmt.Fprintln(cmd.OutOrStdout(), "Memory backend selected, nothing to migrate.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
				return nil
			})
		},
	}
}
