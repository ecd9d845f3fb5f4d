package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimline/receivables-cli/internal/ingest"
)

var loadCSVPath string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a receivables master-data CSV into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := os.Open(loadCSVPath)
		if err != nil {
			return eris.Wrapf(err, "load: open %s", loadCSVPath)
		}
		defer f.Close()

		records, err := ingest.ParseReceivablesCSV(f)
		if err != nil {
			return err
		}
		zap.L().Info("parsed csv",
			zap.Int("records", len(records)),
			zap.String("csv", loadCSVPath),
		)

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "load: migrate")
		}

		n, err := st.InsertReceivables(ctx, records)
		if err != nil {
			return eris.Wrap(err, "load: insert")
		}

		zap.L().Info("load complete", zap.Int64("inserted", n))
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadCSVPath, "csv", "", "path to CSV file (required)")
	_ = loadCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(loadCmd)
}
