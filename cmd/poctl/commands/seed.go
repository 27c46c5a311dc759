package commands

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/service"
)

func newSeedCommand(rt *runtime) *cobra.Command {
	var (
		count     int
		batchSize int
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Args:  cobra.NoArgs,
		Short: "Bulk insert randomly generated purchase orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			opts := service.SeedOptions{
				Count:     count,
				BatchSize: batchSize,
				Progress: func(done, total int) {
					fmt.Fprintf(out, "Progress: %s/%s (%.1f%%)\n",
						formatNumber(int64(done)), formatNumber(int64(total)), float64(done)*100/float64(total))
				},
			}
			if seed != 0 {
				opts.Rand = rand.New(rand.NewPCG(seed, seed))
			}

			return rt.withAdmin(cmd.Context(), func(admin *service.AdminService) error {
				fmt.Fprintf(out, "Adding %s purchase orders in batches of %s\n",
					formatNumber(int64(count)), formatNumber(int64(batchSize)))

				start := time.Now()
				n, err := admin.Seed(cmd.Context(), opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Inserted %s purchase orders in %s.\n",
					formatNumber(n), time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 100000, "number of orders to generate")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10000, "orders per insert batch")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible data (0 picks one)")

	return cmd
}
