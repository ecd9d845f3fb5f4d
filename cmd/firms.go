package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimline/receivables-cli/internal/export"
	"github.com/claimline/receivables-cli/internal/perf"
)

var (
	firmsSort   string
	firmsDir    string
	firmsFormat string
	firmsOutput string
)

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "Print the law-firm performance table",
	Long: `Ranks law firms by collection performance with letter grades.

Examples:
  # Default ordering (open AR descending)
  receivables-cli firms

  # Worst collection rates first
  receivables-cli firms --sort collectionRate --dir asc

  # Export for the finance team
  receivables-cli firms --format xlsx --output firms.xlsx
  receivables-cli firms --format csv --output firms.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if firmsFormat != "table" && firmsFormat != "csv" && firmsFormat != "xlsx" {
			return eris.Errorf("firms: --format must be table, csv, or xlsx (got %q)", firmsFormat)
		}
		if firmsFormat == "xlsx" && firmsOutput == "" {
			return eris.New("firms: --format xlsx requires --output")
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.FetchReceivables(ctx, cfg.Provider.Scope)
		if err != nil {
			return err
		}

		rows := perf.ComputePerformanceTable(records, time.Now())
		dir := perf.Direction(firmsDir)
		if dir != perf.Ascending {
			dir = perf.Descending
		}
		perf.Sort(rows, perf.SortField(firmsSort), dir)
		totals := perf.ComputeTotals(rows)

		switch firmsFormat {
		case "xlsx":
			if err := export.WritePerformanceXLSX(firmsOutput, rows, totals); err != nil {
				return err
			}
			zap.L().Info("wrote performance workbook",
				zap.String("path", firmsOutput),
				zap.Int("firms", len(rows)),
			)
			return nil
		case "csv":
			out := os.Stdout
			if firmsOutput != "" {
				f, err := os.Create(firmsOutput)
				if err != nil {
					return eris.Wrapf(err, "firms: create %s", firmsOutput)
				}
				defer f.Close()
				out = f
			}
			return export.WritePerformanceCSV(out, rows, totals)
		default:
			printPerformanceTable(rows, totals)
			return nil
		}
	},
}

func printPerformanceTable(rows []perf.LawFirmPerformance, totals perf.Totals) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "LAW FIRM\tGRADE\tOPEN AR\tCASES\tCOLL RATE\tAT-RISK AR\tAT-RISK %\tAVG AGE")
	for i := range rows {
		r := &rows[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s%%\t%s\t%.1f%%\t%dd\n",
			r.LawFirmName,
			r.PerformanceGrade,
			r.TotalOpenAR.StringFixed(2),
			r.TotalCases,
			r.CollectionRate.StringFixed(1),
			r.AtRiskAR.StringFixed(2),
			r.AtRiskPct,
			r.AvgCaseAgeDays,
		)
	}
	fmt.Fprintf(w, "TOTAL (%d firms)\t\t%s\t%d\t%s%%\t%s\t\t\n",
		totals.Firms,
		totals.TotalOpenAR.StringFixed(2),
		totals.TotalCases,
		totals.CollectionRate.StringFixed(1),
		totals.AtRiskAR.StringFixed(2),
	)
}

func init() {
	firmsCmd.Flags().StringVar(&firmsSort, "sort", string(perf.SortOpenAR), "sort field: name, cases, openAR, collectionRate, grade, atRiskPct")
	firmsCmd.Flags().StringVar(&firmsDir, "dir", string(perf.Descending), "sort direction: asc or desc")
	firmsCmd.Flags().StringVar(&firmsFormat, "format", "table", "output format: table, csv, or xlsx")
	firmsCmd.Flags().StringVar(&firmsOutput, "output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(firmsCmd)
}
