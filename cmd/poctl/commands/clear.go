package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/service"
)

func newClearCommand(rt *runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Args:  cobra.NoArgs,
		Short: "Delete every purchase order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			return rt.withAdmin(ctx, func(admin *service.AdminService) error {
				count, err := admin.Count(ctx)
				if err != nil {
					return err
				}
				if count == 0 {
					fmt.Fprintln(out, "Database is already empty.")
					return nil
				}

				if !force {
					fmt.Fprintf(out, "WARNING: this will delete ALL %s purchase orders.\n", formatNumber(count))
					fmt.Fprint(out, "Type 'Y' to confirm: ")
					answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if strings.TrimSpace(answer) != "Y" {
						fmt.Fprintln(out, "Operation cancelled.")
						return nil
					}
				}

				n, err := admin.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s purchase orders.\n", formatNumber(n))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")

	return cmd
}
