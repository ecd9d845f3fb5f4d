// Package metrics aggregates receivable records into the KPI summary.
//
// The summary combines two populations that must never be conflated:
// period figures (filtered by the resolved reporting window) and
// portfolio figures (current-state balances over all records, ignoring
// the window). Each sub-aggregate below is an independent pass over the
// full record set with its own filter, matching the shape of the
// upstream reporting queries.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/claimline/receivables-cli/internal/model"
	"github.com/claimline/receivables-cli/internal/period"
	"github.com/claimline/receivables-cli/internal/status"
)

// KPISummary is the flat per-provider KPI record served to callers.
// Presentation formatting (currency, percent signs) is the caller's job.
type KPISummary struct {
	ProviderID   string       `json:"provider_id"`
	ProviderName string       `json:"provider_name"`
	Period       period.Token `json:"period"`

	// Period-filtered figures.
	TotalInvoiced              decimal.Decimal `json:"total_invoiced"`
	TotalCollectedFromInvoices decimal.Decimal `json:"total_collected_from_invoices"`
	TotalWrittenOff            decimal.Decimal `json:"total_written_off"`
	// CollectionRate answers "of cash collected in this window, what
	// fraction of its associated invoiced amount was recovered".
	CollectionRate decimal.Decimal `json:"collection_rate"`
	// InvoiceCollectionRate answers "of invoices raised in this window,
	// what fraction is collected to date". The two rates have different
	// filter populations and are not interchangeable.
	InvoiceCollectionRate decimal.Decimal `json:"invoice_collection_rate"`
	WriteOffRate          decimal.Decimal `json:"write_off_rate"`
	// TotalCollected is cash actually collected inside the window,
	// regardless of when the underlying invoices were raised.
	TotalCollected decimal.Decimal `json:"total_collected"`
	DSODays        int             `json:"dso_days"`

	// Portfolio figures: current-state AR over all records, never
	// period-filtered.
	TotalOpenBalance   decimal.Decimal `json:"total_open_balance"`
	SettledPendingAR   decimal.Decimal `json:"settled_pending_ar"`
	ActiveLitigationAR decimal.Decimal `json:"active_litigation_ar"`
	AtRiskAR           decimal.Decimal `json:"at_risk_ar"`
	LawFirmCount       int             `json:"law_firm_count"`
	CaseCount          int             `json:"case_count"`
	OpenCaseCount      int             `json:"open_case_count"`
	InvoiceCount       int             `json:"invoice_count"`
}

// InvoiceMetrics aggregates records whose invoice date falls in the
// window.
type InvoiceMetrics struct {
	InvoiceCount     int
	CaseCount        int
	OpenCaseCount    int
	LawFirmCount     int
	TotalInvoiced    decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOpenBalance decimal.Decimal
	TotalWrittenOff  decimal.Decimal
	CollectionRate   decimal.Decimal
	WriteOffRate     decimal.Decimal

	SettledPendingAR   decimal.Decimal
	ActiveLitigationAR decimal.Decimal
	AtRiskAR           decimal.Decimal
}

// PortfolioMetrics aggregates current-state balances over records with a
// positive open balance, ignoring the reporting window. It uses the
// portfolio status vocabulary, which is pinned separately from the
// period vocabulary (see package status).
type PortfolioMetrics struct {
	OpenBalance        decimal.Decimal
	SettledPendingAR   decimal.Decimal
	ActiveLitigationAR decimal.Decimal
	AtRiskAR           decimal.Decimal
	LawFirmCount       int
	CaseCount          int
	OpenCaseCount      int
	InvoiceCount       int
}

// ComputeKPISummary derives the KPI summary for one provider scope. The
// record slice must already be scoped to the provider; the engine never
// filters by provider itself. now anchors the age clause in the
// period-filtered at-risk sub-total.
func ComputeKPISummary(records []model.ReceivableRecord, w period.Window, now time.Time) KPISummary {
	inv := computeInvoiceMetrics(records, w, now)
	port := computePortfolioMetrics(records)
	collected := collectedInPeriod(records, w)
	dso := computeDSO(records, w)
	periodRate := periodCollectionRate(records, w)

	s := KPISummary{
		Period: w.Token,

		TotalInvoiced:              inv.TotalInvoiced,
		TotalCollectedFromInvoices: inv.TotalCollected,
		TotalWrittenOff:            inv.TotalWrittenOff,
		CollectionRate:             periodRate,
		InvoiceCollectionRate:      inv.CollectionRate,
		WriteOffRate:               inv.WriteOffRate,
		TotalCollected:             collected,
		DSODays:                    dso,

		TotalOpenBalance:   port.OpenBalance,
		SettledPendingAR:   port.SettledPendingAR,
		ActiveLitigationAR: port.ActiveLitigationAR,
		AtRiskAR:           port.AtRiskAR,
		LawFirmCount:       port.LawFirmCount,
		CaseCount:          port.CaseCount,
		OpenCaseCount:      port.OpenCaseCount,
		InvoiceCount:       port.InvoiceCount,
	}
	if len(records) > 0 {
		s.ProviderID = records[0].ProviderID
		s.ProviderName = records[0].ProviderName
	}
	return s
}

// veryOldMonths is the age at which a receivable joins the period
// at-risk sub-total regardless of status.
const veryOldMonths = 36

func computeInvoiceMetrics(records []model.ReceivableRecord, w period.Window, now time.Time) InvoiceMetrics {
	m := InvoiceMetrics{
		TotalInvoiced:      decimal.Zero,
		TotalCollected:     decimal.Zero,
		TotalOpenBalance:   decimal.Zero,
		TotalWrittenOff:    decimal.Zero,
		SettledPendingAR:   decimal.Zero,
		ActiveLitigationAR: decimal.Zero,
		AtRiskAR:           decimal.Zero,
	}

	cases := make(map[string]struct{})
	openCases := make(map[string]struct{})
	firms := make(map[string]struct{})

	for i := range records {
		rec := &records[i]
		if !w.ContainsInvoice(rec) {
			continue
		}

		m.InvoiceCount++
		cases[rec.OpportunityName] = struct{}{}
		if status.Period.Actionable.Contains(rec.CaseStatus) {
			openCases[rec.OpportunityName] = struct{}{}
		}
		firms[rec.LawFirmID] = struct{}{}

		m.TotalInvoiced = m.TotalInvoiced.Add(rec.InvoiceAmount)
		m.TotalCollected = m.TotalCollected.Add(rec.CollectedAmount)
		m.TotalOpenBalance = m.TotalOpenBalance.Add(rec.OpenBalance)
		m.TotalWrittenOff = m.TotalWrittenOff.Add(rec.WriteOffAmount)

		if status.Period.SettledPending.Contains(rec.CaseStatus) {
			m.SettledPendingAR = m.SettledPendingAR.Add(rec.OpenBalance)
		}
		if status.Period.ActiveLitigation.Contains(rec.CaseStatus) {
			m.ActiveLitigationAR = m.ActiveLitigationAR.Add(rec.OpenBalance)
		}
		if status.Period.AtRisk.Contains(rec.CaseStatus) || rec.AgedAtLeastMonths(now, veryOldMonths) {
			m.AtRiskAR = m.AtRiskAR.Add(rec.OpenBalance)
		}
	}

	m.CaseCount = len(cases)
	m.OpenCaseCount = len(openCases)
	m.LawFirmCount = len(firms)
	m.CollectionRate = ratePercent(m.TotalCollected, m.TotalInvoiced)
	m.WriteOffRate = ratePercent(m.TotalWrittenOff, m.TotalInvoiced)
	return m
}

func computePortfolioMetrics(records []model.ReceivableRecord) PortfolioMetrics {
	m := PortfolioMetrics{
		OpenBalance:        decimal.Zero,
		SettledPendingAR:   decimal.Zero,
		ActiveLitigationAR: decimal.Zero,
		AtRiskAR:           decimal.Zero,
	}

	cases := make(map[string]struct{})
	openCases := make(map[string]struct{})
	firms := make(map[string]struct{})

	for i := range records {
		rec := &records[i]
		if !rec.OpenBalance.IsPositive() {
			continue
		}

		m.InvoiceCount++
		cases[rec.OpportunityName] = struct{}{}
		if status.Portfolio.Actionable.Contains(rec.CaseStatus) {
			openCases[rec.OpportunityName] = struct{}{}
		}
		firms[rec.LawFirmID] = struct{}{}

		m.OpenBalance = m.OpenBalance.Add(rec.OpenBalance)
		if status.Portfolio.SettledPending.Contains(rec.CaseStatus) {
			m.SettledPendingAR = m.SettledPendingAR.Add(rec.OpenBalance)
		}
		if status.Portfolio.ActiveLitigation.Contains(rec.CaseStatus) {
			m.ActiveLitigationAR = m.ActiveLitigationAR.Add(rec.OpenBalance)
		}
		if status.Portfolio.AtRisk.Contains(rec.CaseStatus) {
			m.AtRiskAR = m.AtRiskAR.Add(rec.OpenBalance)
		}
	}

	m.CaseCount = len(cases)
	m.OpenCaseCount = len(openCases)
	m.LawFirmCount = len(firms)
	return m
}

// collectedInPeriod sums cash actually collected inside the window:
// records with a positive collected amount and a collection date in the
// window.
func collectedInPeriod(records []model.ReceivableRecord, w period.Window) decimal.Decimal {
	total := decimal.Zero
	for i := range records {
		rec := &records[i]
		if rec.CollectionDate == nil || !rec.CollectedAmount.IsPositive() {
			continue
		}
		if !w.ContainsCollection(rec) {
			continue
		}
		total = total.Add(rec.CollectedAmount)
	}
	return total
}

// computeDSO averages collection_date - invoice_date, in whole days,
// over invoice-date-filtered records that were actually collected.
// Returns 0 when no record qualifies.
func computeDSO(records []model.ReceivableRecord, w period.Window) int {
	var sum, n int
	for i := range records {
		rec := &records[i]
		if !w.ContainsInvoice(rec) {
			continue
		}
		if rec.CollectionDate == nil || !rec.CollectedAmount.IsPositive() {
			continue
		}
		days, ok := rec.DaysToCollection()
		if !ok {
			continue
		}
		sum += days
		n++
	}
	if n == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}

// periodCollectionRate recomputes the collection rate over
// collection-date-filtered records. Its population differs from the
// invoice-metrics rate and the two are reported side by side.
func periodCollectionRate(records []model.ReceivableRecord, w period.Window) decimal.Decimal {
	invoiced := decimal.Zero
	collected := decimal.Zero
	for i := range records {
		rec := &records[i]
		if rec.CollectionDate == nil {
			continue
		}
		if !w.ContainsCollection(rec) {
			continue
		}
		invoiced = invoiced.Add(rec.InvoiceAmount)
		collected = collected.Add(rec.CollectedAmount)
	}
	return ratePercent(collected, invoiced)
}

// ratePercent returns num/den * 100 rounded to one decimal place, or 0
// when den is not positive. Zero denominators resolve to 0 by contract,
// never an error.
func ratePercent(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den).Mul(decimal.NewFromInt(100)).Round(1)
}
