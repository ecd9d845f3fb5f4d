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

	"github.com/claimline/receivables-cli/internal/risk"
)

var riskJSON bool

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Print per-firm risk profiles",
	Long: `Classifies each law firm's at-risk receivables and prints profiles
ordered by composite risk score, highest first.

Examples:
  receivables-cli risk
  receivables-cli risk --json | jq '.[] | select(.risk_level == "Critical")'`,
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

		profiles := risk.ComputeRiskProfile(records, time.Now())
		if riskJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(profiles)
		}

		printRiskTable(profiles)
		return nil
	},
}

func printRiskTable(profiles []risk.LawFirmRisk) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "LAW FIRM\tLEVEL\tSCORE\tAT-RISK AR\tAT-RISK %\tNLR\tSTALE\tVERY OLD\tDELAYED DISB")
	for i := range profiles {
		p := &profiles[i]
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%.1f%%\t%d\t%d\t%d\t%d\n",
			p.LawFirmName,
			p.RiskLevel,
			p.RiskScore,
			p.TotalAtRiskAR.StringFixed(2),
			p.AtRiskPct,
			p.NoLongerRepresent.Cases,
			p.StalePending.Cases,
			p.VeryOld.Cases,
			p.DelayedDisbursementCases,
		)
	}
}

func init() {
	riskCmd.Flags().BoolVar(&riskJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(riskCmd)
}
