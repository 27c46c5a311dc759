package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/service"
)

const ruleWidth = 70

func newSummaryCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Args:  cobra.NoArgs,
		Short: "Print an aggregate report of the purchase orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withAdmin(cmd.Context(), func(admin *service.AdminService) error {
				s, err := admin.Summary(cmd.Context())
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), s, time.Now())
				return nil
			})
		},
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

func printSummary(w io.Writer, s *domain.Summary, now time.Time) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "PURCHASE ORDER DATABASE SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Purchase Orders: %s\n\n", formatNumber(s.TotalOrders))

	if s.TotalOrders == 0 {
		fmt.Fprintln(w, "No purchase orders found in the database.")
		return
	}

	section(w, "FINANCIAL SUMMARY")
	fmt.Fprintf(w, "  Total Order Value:    %s\n", formatCurrency(s.TotalValue))
	fmt.Fprintf(w, "  Average Order Value:  %s\n", formatCurrency(s.AverageValue))
	fmt.Fprintf(w, "  Minimum Order Value:  %s\n", formatCurrency(s.MinValue))
	fmt.Fprintf(w, "  Maximum Order Value:  %s\n\n", formatCurrency(s.MaxValue))

	section(w, "QUANTITY SUMMARY")
	fmt.Fprintf(w, "  Total Items Ordered:  %s\n", formatNumber(s.TotalQuantity))
	fmt.Fprintf(w, "  Average Quantity:     %s\n", formatNumber(int64(s.AverageQuantity)))
	fmt.Fprintf(w, "  Minimum Quantity:     %s\n", formatNumber(int64(s.MinQuantity)))
	fmt.Fprintf(w, "  Maximum Quantity:     %s\n\n", formatNumber(int64(s.MaxQuantity)))

	section(w, fmt.Sprintf("TOP %d ITEMS BY ORDER COUNT", len(s.TopByCount)))
	for i, it := range s.TopByCount {
		fmt.Fprintf(w, "  %2d. %-25s - %8s orders, %8s units, %15s\n",
			i+1, it.ItemName, formatNumber(it.OrderCount), formatNumber(it.Quantity), formatCurrency(it.TotalValue))
	}
	fmt.Fprintln(w)

	section(w, fmt.Sprintf("TOP %d ITEMS BY TOTAL REVENUE", len(s.TopByRevenue)))
	for i, it := range s.TopByRevenue {
		fmt.Fprintf(w, "  %2d. %-25s - %15s (%s orders)\n",
			i+1, it.ItemName, formatCurrency(it.TotalValue), formatNumber(it.OrderCount))
	}
	fmt.Fprintln(w)

	section(w, "DATE RANGE")
	fmt.Fprintf(w, "  Earliest Order Date:    %s\n", s.EarliestOrderDate.Format(domain.DateLayout))
	fmt.Fprintf(w, "  Latest Order Date:      %s\n", s.LatestOrderDate.Format(domain.DateLayout))
	fmt.Fprintf(w, "  Earliest Delivery Date: %s\n", s.EarliestDeliveryDate.Format(domain.DateLayout))
	fmt.Fprintf(w, "  Latest Delivery Date:   %s\n\n", s.LatestDeliveryDate.Format(domain.DateLayout))

	section(w, "ORDERS BY YEAR")
	for _, y := range s.ByYear {
		fmt.Fprintf(w, "  %d: %10s orders, Total: %15s\n", y.Year, formatNumber(y.OrderCount), formatCurrency(y.TotalValue))
	}
	fmt.Fprintln(w)

	section(w, fmt.Sprintf("LATEST %d PURCHASE ORDERS", len(s.Latest)))
	for _, o := range s.Latest {
		fmt.Fprintf(w, "  ID %d: %s - %d units x %s = %s\n",
			o.ID, o.ItemName, o.Quantity, formatCurrency(o.UnitPrice), formatCurrency(o.TotalPrice))
		fmt.Fprintf(w, "         Ordered: %s, Delivery: %s\n",
			o.OrderDate.Format(domain.DateLayout), o.DeliveryDate.Format(domain.DateLayout))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Summary generated at: %s\n", now.Format(time.DateTime))
	fmt.Fprintln(w, rule)
}
