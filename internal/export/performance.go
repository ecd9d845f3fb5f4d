// Package export renders the performance table to CSV and XLSX files
// for hand-off to the finance team.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/claimline/receivables-cli/internal/perf"
)

var performanceHeader = []string{
	"Law Firm ID", "Law Firm", "Grade", "Cases",
	"Total Invoiced", "Total Collected", "Open AR", "Collection Rate %",
	"Active Litigation Cases", "Active Litigation AR",
	"At-Risk Cases", "At-Risk AR", "At-Risk %",
	"Avg Case Age (days)", "Avg Days to Collection",
}

func performanceRow(row *perf.LawFirmPerformance) []string {
	return []string{
		row.LawFirmID,
		row.LawFirmName,
		string(row.PerformanceGrade),
		strconv.Itoa(row.TotalCases),
		row.TotalInvoiced.StringFixed(2),
		row.TotalCollected.StringFixed(2),
		row.TotalOpenAR.StringFixed(2),
		row.CollectionRate.StringFixed(1),
		strconv.Itoa(row.ActiveLitigationCases),
		row.ActiveLitigationAR.StringFixed(2),
		strconv.Itoa(row.AtRiskCases),
		row.AtRiskAR.StringFixed(2),
		fmt.Sprintf("%.1f", row.AtRiskPct),
		strconv.Itoa(row.AvgCaseAgeDays),
		strconv.Itoa(row.AvgDaysToCollection),
	}
}

func totalsRow(t perf.Totals) []string {
	return []string{
		"",
		fmt.Sprintf("Total (%d firms)", t.Firms),
		"",
		strconv.Itoa(t.TotalCases),
		t.TotalInvoiced.StringFixed(2),
		t.TotalCollected.StringFixed(2),
		t.TotalOpenAR.StringFixed(2),
		t.CollectionRate.StringFixed(1),
		"", "", "",
		t.AtRiskAR.StringFixed(2),
		"", "", "",
	}
}

// WritePerformanceCSV streams the table, with the totals footer last.
func WritePerformanceCSV(w io.Writer, rows []perf.LawFirmPerformance, totals perf.Totals) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(performanceHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i := range rows {
		if err := cw.Write(performanceRow(&rows[i])); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	if err := cw.Write(totalsRow(totals)); err != nil {
		return eris.Wrap(err, "export: write csv totals")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WritePerformanceXLSX writes the table as a single-sheet workbook.
func WritePerformanceXLSX(path string, rows []perf.LawFirmPerformance, totals perf.Totals) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Law Firm Performance")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, performanceHeader)
	for i := range rows {
		addRow(sheet, performanceRow(&rows[i]))
	}
	addRow(sheet, totalsRow(totals))

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}
