// Package ingest parses receivables master-data extracts.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/claimline/receivables-cli/internal/model"
)

// csvHeader is the expected column order of a master-data CSV extract.
var csvHeader = []string{
	"provider_id", "provider_name", "opportunity_name", "case_status",
	"law_firm_id", "law_firm_name",
	"invoice_amount", "collected_amount", "write_off_amount", "open_balance",
	"invoice_date", "collection_date", "origination_date",
}

const csvDateLayout = "2006-01-02"

// ParseReceivablesCSV reads an extract into records. The header row must
// match csvHeader exactly; a mismatched extract fails fast rather than
// silently mapping columns. Rows that violate the soft balance
// invariant are kept but logged.
func ParseReceivablesCSV(r io.Reader) ([]model.ReceivableRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}
	for i, want := range csvHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, eris.Errorf("ingest: column %d is %q, want %q", i, header[i], want)
		}
	}

	var records []model.ReceivableRecord
	var inconsistent int
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read csv line %d", line)
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: line %d", line)
		}
		if !rec.BalanceConsistent() {
			inconsistent++
		}
		records = append(records, rec)
	}

	if inconsistent > 0 {
		zap.L().Warn("ingest: records violate the open-balance identity",
			zap.Int("records", inconsistent),
			zap.Int("total", len(records)),
		)
	}
	return records, nil
}

func parseRow(row []string) (model.ReceivableRecord, error) {
	rec := model.ReceivableRecord{
		ProviderID:      strings.TrimSpace(row[0]),
		ProviderName:    strings.TrimSpace(row[1]),
		OpportunityName: strings.TrimSpace(row[2]),
		CaseStatus:      strings.TrimSpace(row[3]),
		LawFirmID:       strings.TrimSpace(row[4]),
		LawFirmName:     strings.TrimSpace(row[5]),
	}

	var err error
	if rec.InvoiceAmount, err = parseAmount(row[6]); err != nil {
		return rec, eris.Wrap(err, "invoice_amount")
	}
	if rec.CollectedAmount, err = parseAmount(row[7]); err != nil {
		return rec, eris.Wrap(err, "collected_amount")
	}
	if rec.WriteOffAmount, err = parseAmount(row[8]); err != nil {
		return rec, eris.Wrap(err, "write_off_amount")
	}
	if rec.OpenBalance, err = parseAmount(row[9]); err != nil {
		return rec, eris.Wrap(err, "open_balance")
	}
	if rec.InvoiceDate, err = parseCSVDate(row[10]); err != nil {
		return rec, eris.Wrap(err, "invoice_date")
	}
	if rec.CollectionDate, err = parseCSVDate(row[11]); err != nil {
		return rec, eris.Wrap(err, "collection_date")
	}
	if rec.OriginationDate, err = parseCSVDate(row[12]); err != nil {
		return rec, eris.Wrap(err, "origination_date")
	}
	return rec, nil
}

// parseAmount parses a monetary value; empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseCSVDate parses a date; empty means null.
func parseCSVDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(csvDateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
