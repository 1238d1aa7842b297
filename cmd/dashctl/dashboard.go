package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agriconnect/service-dashboard/internal/analytics"
	"github.com/agriconnect/service-dashboard/internal/models"
)

var (
	flagPeriod string
	flagJSON   bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard of one period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := models.ParsePeriod(flagPeriod)
		if err != nil {
			return err
		}
		env, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), env.timeout)
		defer cancel()

		analysis, err := env.client.GetSalesAnalysis(ctx, env.session, period)
		if err != nil {
			return err
		}
		d := analytics.Build(analysis, period, analytics.BuildOptions{Location: env.location})

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}
		renderDashboard(cmd.OutOrStdout(), d, env.location)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVarP(&flagPeriod, "period", "p", string(models.PeriodMonth), "reporting period: 1day, 30days or 1year")
	dashboardCmd.Flags().BoolVar(&flagJSON, "json", false, "print the dashboard as JSON")
}

func renderDashboard(out io.Writer, d *analytics.Dashboard, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	fmt.Fprintf(out, "%s  (%s to %s)\n\n", d.Period.Label(),
		d.Window.Start.In(loc).Format("2006-01-02 15:04"),
		d.Window.End.In(loc).Format("2006-01-02 15:04"))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total sales\t%d\t%s\n", d.Summary.TotalSales, d.SalesGrowth)
	fmt.Fprintf(w, "Total revenue\t%s\t%s\n", d.Summary.TotalRevenue.StringFixed(2), d.RevenueGrowth)
	fmt.Fprintf(w, "Inventory left\t%d\t\n", d.InventoryTotal)
	_ = w.Flush()

	fmt.Fprintln(out)
	if len(d.Buckets) == 0 {
		fmt.Fprintln(out, "No sales in this period.")
		return
	}

	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Bucket\tQty sold")
	for _, b := range d.Buckets {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Quantity)
	}
	_ = w.Flush()

	if len(d.TopSellers.Labels) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Top seller\tQty sold")
		for i, name := range d.TopSellers.Labels {
			fmt.Fprintf(w, "%s\t%.0f\n", name, d.TopSellers.Series[0].Values[i])
		}
		_ = w.Flush()
	}
}
