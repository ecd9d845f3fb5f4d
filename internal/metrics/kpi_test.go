package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/claimline/receivables-cli/internal/model"
	"github.com/claimline/receivables-cli/internal/period"
)

var testNow = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// fixtureRecords is a small provider-scoped portfolio exercising both
// filter populations:
//
//	r1: invoiced and collected recently, fully paid
//	r2: invoiced recently, still open, in litigation
//	r3: old invoice collected recently (period cash, not period invoice)
//	r4: old stale receivable, open, no longer represented
//	r5: zero open balance, settled long ago
func fixtureRecords() []model.ReceivableRecord {
	return []model.ReceivableRecord{
		{
			ProviderID: "prov-1", ProviderName: "Lakeside Rehab Group",
			OpportunityName: "Case 1", CaseStatus: "Open",
			LawFirmID: "lf-1", LawFirmName: "Alpha Law",
			InvoiceAmount: dec(100), CollectedAmount: dec(100),
			WriteOffAmount: decimal.Zero, OpenBalance: decimal.Zero,
			InvoiceDate:    datePtr(2025, time.April, 1),
			CollectionDate: datePtr(2025, time.May, 1),
		},
		{
			ProviderID: "prov-1", ProviderName: "Lakeside Rehab Group",
			OpportunityName: "Case 2", CaseStatus: "Litigation",
			LawFirmID: "lf-1", LawFirmName: "Alpha Law",
			InvoiceAmount: dec(200), CollectedAmount: dec(50),
			WriteOffAmount: dec(10), OpenBalance: dec(140),
			InvoiceDate: datePtr(2025, time.May, 1),
		},
		{
			ProviderID: "prov-1", ProviderName: "Lakeside Rehab Group",
			OpportunityName: "Case 3", CaseStatus: "In Progress",
			LawFirmID: "lf-2", LawFirmName: "Bravo Law",
			InvoiceAmount: dec(300), CollectedAmount: dec(150),
			WriteOffAmount: decimal.Zero, OpenBalance: dec(150),
			InvoiceDate:    datePtr(2023, time.January, 1),
			CollectionDate: datePtr(2025, time.May, 20),
		},
		{
			ProviderID: "prov-1", ProviderName: "Lakeside Rehab Group",
			OpportunityName: "Case 4", CaseStatus: "No Longer Represent",
			LawFirmID: "lf-2", LawFirmName: "Bravo Law",
			InvoiceAmount: dec(400), CollectedAmount: decimal.Zero,
			WriteOffAmount: decimal.Zero, OpenBalance: dec(400),
			InvoiceDate: datePtr(2021, time.January, 1),
		},
		{
			ProviderID: "prov-1", ProviderName: "Lakeside Rehab Group",
			OpportunityName: "Case 5", CaseStatus: "Settled - Pending",
			LawFirmID: "lf-3", LawFirmName: "Charlie Law",
			InvoiceAmount: dec(500), CollectedAmount: dec(500),
			WriteOffAmount: decimal.Zero, OpenBalance: decimal.Zero,
			InvoiceDate:    datePtr(2020, time.March, 1),
			CollectionDate: datePtr(2020, time.September, 1),
		},
	}
}

func TestComputeKPISummary_AllTime(t *testing.T) {
	w := period.Resolve("all", testNow)
	s := ComputeKPISummary(fixtureRecords(), w, testNow)

	assert.Equal(t, "prov-1", s.ProviderID)
	assert.Equal(t, "Lakeside Rehab Group", s.ProviderName)
	assert.Equal(t, period.TokenAll, s.Period)

	assert.Equal(t, "1500.00", s.TotalInvoiced.StringFixed(2))
	assert.Equal(t, "800.00", s.TotalCollectedFromInvoices.StringFixed(2))
	assert.Equal(t, "10.00", s.TotalWrittenOff.StringFixed(2))

	// invoice collection rate = 800/1500 = 53.3
	assert.Equal(t, "53.3", s.InvoiceCollectionRate.StringFixed(1))
	// write-off rate = 10/1500 = 0.7
	assert.Equal(t, "0.7", s.WriteOffRate.StringFixed(1))

	// all collected cash regardless of window
	assert.Equal(t, "750.00", s.TotalCollected.StringFixed(2))
}

func TestComputeKPISummary_SixMonthWindow(t *testing.T) {
	w := period.Resolve("6m", testNow)
	s := ComputeKPISummary(fixtureRecords(), w, testNow)

	// Only r1 and r2 are invoiced inside the window.
	assert.Equal(t, "300.00", s.TotalInvoiced.StringFixed(2))
	assert.Equal(t, "150.00", s.TotalCollectedFromInvoices.StringFixed(2))
	// 150/300 = 50.0
	assert.Equal(t, "50.0", s.InvoiceCollectionRate.StringFixed(1))

	// Cash collected in the window: r1 (100) + r3 (150). r3's invoice is
	// outside the window but its cash is not.
	assert.Equal(t, "250.00", s.TotalCollected.StringFixed(2))

	// Period cash rate over collection-dated records in window:
	// (100+150)/(100+300) = 62.5
	assert.Equal(t, "62.5", s.CollectionRate.StringFixed(1))
}

func TestComputeKPISummary_PortfolioIgnoresWindow(t *testing.T) {
	// Portfolio balances are identical under every window.
	all := ComputeKPISummary(fixtureRecords(), period.Resolve("all", testNow), testNow)
	threeM := ComputeKPISummary(fixtureRecords(), period.Resolve("3m", testNow), testNow)

	assert.Equal(t, all.TotalOpenBalance.StringFixed(2), threeM.TotalOpenBalance.StringFixed(2))
	assert.Equal(t, all.AtRiskAR.StringFixed(2), threeM.AtRiskAR.StringFixed(2))
	assert.Equal(t, all.LawFirmCount, threeM.LawFirmCount)
	assert.Equal(t, all.CaseCount, threeM.CaseCount)

	// Only r2, r3, r4 carry open balances.
	assert.Equal(t, "690.00", all.TotalOpenBalance.StringFixed(2))
	assert.Equal(t, 3, all.CaseCount)
	assert.Equal(t, 2, all.LawFirmCount)
	assert.Equal(t, 3, all.InvoiceCount)
	// Portfolio at-risk: r4 (No Longer Represent) only.
	assert.Equal(t, "400.00", all.AtRiskAR.StringFixed(2))
}

func TestComputeKPISummary_DSO(t *testing.T) {
	// Collected records under "all": r1 (30 days), r3 (870 days),
	// r5 (184 days). Mean = 1084/3 = 361.33, rounded 361.
	s := ComputeKPISummary(fixtureRecords(), period.Resolve("all", testNow), testNow)
	assert.Equal(t, 361, s.DSODays)

	// Under 6m only r1 qualifies by invoice date.
	s6 := ComputeKPISummary(fixtureRecords(), period.Resolve("6m", testNow), testNow)
	assert.Equal(t, 30, s6.DSODays)
}

func TestComputeKPISummary_EmptyRecordSet(t *testing.T) {
	s := ComputeKPISummary(nil, period.Resolve("all", testNow), testNow)

	assert.Equal(t, "", s.ProviderID)
	assert.True(t, s.TotalInvoiced.IsZero())
	assert.True(t, s.CollectionRate.IsZero())
	assert.True(t, s.InvoiceCollectionRate.IsZero())
	assert.True(t, s.WriteOffRate.IsZero())
	assert.True(t, s.TotalOpenBalance.IsZero())
	assert.Equal(t, 0, s.DSODays)
	assert.Equal(t, 0, s.LawFirmCount)
}

func TestComputeInvoiceMetrics_VeryOldJoinsAtRisk(t *testing.T) {
	// r4 qualifies both by status and by the 36-month age clause; its AR
	// counts once. r5 is also aged past 36 months but carries no open
	// balance, so it contributes zero.
	m := computeInvoiceMetrics(fixtureRecords(), period.Resolve("all", testNow), testNow)
	assert.Equal(t, "400.00", m.AtRiskAR.StringFixed(2))

	// A fresh record with an at-risk status still counts without any age.
	recs := append(fixtureRecords(), model.ReceivableRecord{
		OpportunityName: "Case 6", CaseStatus: "Stale - Pending",
		LawFirmID: "lf-3", LawFirmName: "Charlie Law",
		InvoiceAmount: dec(50), OpenBalance: dec(50),
		CollectedAmount: decimal.Zero, WriteOffAmount: decimal.Zero,
		InvoiceDate: datePtr(2025, time.June, 1),
	})
	m = computeInvoiceMetrics(recs, period.Resolve("all", testNow), testNow)
	assert.Equal(t, "450.00", m.AtRiskAR.StringFixed(2))
}

func TestComputeInvoiceMetrics_OpenCaseCount(t *testing.T) {
	m := computeInvoiceMetrics(fixtureRecords(), period.Resolve("all", testNow), testNow)
	// Actionable statuses: Open (r1), Litigation (r2), In Progress (r3).
	assert.Equal(t, 3, m.OpenCaseCount)
	assert.Equal(t, 5, m.CaseCount)
	assert.Equal(t, 3, m.LawFirmCount)
}

func TestRatePercent_ZeroDenominator(t *testing.T) {
	assert.True(t, ratePercent(dec(10), decimal.Zero).IsZero())
	assert.True(t, ratePercent(dec(10), dec(-5)).IsZero())
}

func TestRatePercent_Rounding(t *testing.T) {
	// 1/3 = 33.333... rounds to 33.3
	assert.Equal(t, "33.3", ratePercent(dec(1), dec(3)).StringFixed(1))
	// 2/3 = 66.666... rounds to 66.7
	assert.Equal(t, "66.7", ratePercent(dec(2), dec(3)).StringFixed(1))
}
