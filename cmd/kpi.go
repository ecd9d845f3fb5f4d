package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimline/receivables-cli/internal/metrics"
	"github.com/claimline/receivables-cli/internal/period"
)

var (
	kpiPeriod string
	kpiJSON   bool
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Print the KPI summary for a reporting period",
	Long: `Computes the KPI summary over the configured provider scope.

Period figures (invoiced, collected, write-offs, rates, DSO) are
restricted to the requested window; portfolio figures (open balance and
its risk sub-totals) always reflect the full current state.

Examples:
  receivables-cli kpi --period 3m
  receivables-cli kpi --period ytd --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.FetchReceivables(ctx, cfg.Provider.Scope)
		if err != nil {
			return err
		}

		now := time.Now()
		summary := metrics.ComputeKPISummary(records, period.Resolve(kpiPeriod, now), now)

		if kpiJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		printKPISummary(summary)
		return nil
	},
}

func printKPISummary(s metrics.KPISummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Provider:\t%s\n", s.ProviderName)
	fmt.Fprintf(w, "Period:\t%s\n", s.Period)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Invoiced:\t%s\n", s.TotalInvoiced.StringFixed(2))
	fmt.Fprintf(w, "Collected (from period invoices):\t%s\n", s.TotalCollectedFromInvoices.StringFixed(2))
	fmt.Fprintf(w, "Cash Collected in Period:\t%s\n", s.TotalCollected.StringFixed(2))
	fmt.Fprintf(w, "Written Off:\t%s\n", s.TotalWrittenOff.StringFixed(2))
	fmt.Fprintf(w, "Collection Rate (period cash):\t%s%%\n", s.CollectionRate.StringFixed(1))
	fmt.Fprintf(w, "Collection Rate (period invoices):\t%s%%\n", s.InvoiceCollectionRate.StringFixed(1))
	fmt.Fprintf(w, "Write-Off Rate:\t%s%%\n", s.WriteOffRate.StringFixed(1))
	fmt.Fprintf(w, "DSO:\t%d days\n", s.DSODays)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Portfolio Open Balance:\t%s\n", s.TotalOpenBalance.StringFixed(2))
	fmt.Fprintf(w, "  Settled Pending AR:\t%s\n", s.SettledPendingAR.StringFixed(2))
	fmt.Fprintf(w, "  Active Litigation AR:\t%s\n", s.ActiveLitigationAR.StringFixed(2))
	fmt.Fprintf(w, "  At-Risk AR:\t%s\n", s.AtRiskAR.StringFixed(2))
	fmt.Fprintf(w, "Law Firms:\t%d\n", s.LawFirmCount)
	fmt.Fprintf(w, "Cases:\t%d (%d open)\n", s.CaseCount, s.OpenCaseCount)
	fmt.Fprintf(w, "Invoices:\t%d\n", s.InvoiceCount)
}

func init() {
	kpiCmd.Flags().StringVar(&kpiPeriod, "period", "all", "reporting period: 3m, 6m, 12m, ytd, all")
	kpiCmd.Flags().BoolVar(&kpiJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(kpiCmd)
}
