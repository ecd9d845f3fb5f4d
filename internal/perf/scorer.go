// Package perf builds the ranked law-firm performance table.
package perf

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/claimline/receivables-cli/internal/model"
	"github.com/claimline/receivables-cli/internal/risk"
	"github.com/claimline/receivables-cli/internal/status"
)

// Grade is the letter performance grade of a law firm.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Grading thresholds over the blended grade score
// (collection rate - atRiskPenalty * at-risk percentage). The mapping is
// monotonic: raising the collection rate or lowering the at-risk
// percentage can never produce a worse grade.
const (
	gradeAThreshold = 75.0
	gradeBThreshold = 60.0
	gradeCThreshold = 45.0
	gradeDThreshold = 30.0

	atRiskPenalty = 0.5
)

// LawFirmPerformance is one row of the performance table.
type LawFirmPerformance struct {
	LawFirmID   string `json:"law_firm_id"`
	LawFirmName string `json:"law_firm_name"`

	TotalCases     int             `json:"total_cases"`
	TotalInvoiced  decimal.Decimal `json:"total_invoiced"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalOpenAR    decimal.Decimal `json:"total_open_ar"`
	CollectionRate decimal.Decimal `json:"collection_rate"`

	ActiveLitigationCases int             `json:"active_litigation_cases"`
	ActiveLitigationAR    decimal.Decimal `json:"active_litigation_ar"`
	AtRiskCases           int             `json:"at_risk_cases"`
	AtRiskAR              decimal.Decimal `json:"at_risk_ar"`
	AtRiskPct             float64         `json:"at_risk_pct"`

	AvgCaseAgeDays      int `json:"avg_case_age_days"`
	AvgDaysToCollection int `json:"avg_days_to_collection"`

	PerformanceGrade Grade `json:"performance_grade"`
}

// ComputePerformanceTable scores every firm in the record set. Rows come
// back ranked by open AR descending, the default ordering of the
// dashboard table; use Sort to reorder.
func ComputePerformanceTable(records []model.ReceivableRecord, now time.Time) []LawFirmPerformance {
	aggregates := model.GroupByLawFirm(records)

	// At-risk figures share union-dedup semantics with the risk
	// classifier; compute them once there instead of reimplementing.
	atRisk := make(map[string]risk.LawFirmRisk, len(aggregates))
	for _, p := range risk.ComputeRiskProfile(records, now) {
		atRisk[p.LawFirmID] = p
	}

	rows := make([]LawFirmPerformance, 0, len(aggregates))
	for i := range aggregates {
		rows = append(rows, scoreFirm(&aggregates[i], atRisk[aggregates[i].LawFirmID], now))
	}
	Sort(rows, SortOpenAR, Descending)
	return rows
}

func scoreFirm(agg *model.LawFirmAggregate, rp risk.LawFirmRisk, now time.Time) LawFirmPerformance {
	row := LawFirmPerformance{
		LawFirmID:          agg.LawFirmID,
		LawFirmName:        agg.LawFirmName,
		TotalInvoiced:      decimal.Zero,
		TotalCollected:     decimal.Zero,
		TotalOpenAR:        decimal.Zero,
		ActiveLitigationAR: decimal.Zero,
		AtRiskCases:        rp.TotalAtRiskCases,
		AtRiskAR:           rp.TotalAtRiskAR,
	}

	litCases := make(map[string]struct{})
	var ageSum, ageN int
	var collSum, collN int

	for i := range agg.Records {
		rec := &agg.Records[i]
		row.TotalInvoiced = row.TotalInvoiced.Add(rec.InvoiceAmount)
		row.TotalCollected = row.TotalCollected.Add(rec.CollectedAmount)
		row.TotalOpenAR = row.TotalOpenAR.Add(rec.OpenBalance)

		if status.Period.ActiveLitigation.Contains(rec.CaseStatus) && rec.OpenBalance.IsPositive() {
			litCases[rec.OpportunityName] = struct{}{}
			row.ActiveLitigationAR = row.ActiveLitigationAR.Add(rec.OpenBalance)
		}

		if rec.OpenBalance.IsPositive() {
			ageSum += rec.AgeDays(now)
			ageN++
		}
		if days, ok := rec.DaysToCollection(); ok && rec.CollectedAmount.IsPositive() {
			collSum += days
			collN++
		}
	}

	row.TotalCases = len(agg.Cases())
	row.ActiveLitigationCases = len(litCases)
	if ageN > 0 {
		row.AvgCaseAgeDays = roundDiv(ageSum, ageN)
	}
	if collN > 0 {
		row.AvgDaysToCollection = roundDiv(collSum, collN)
	}

	row.CollectionRate = ratePercent(row.TotalCollected, row.TotalInvoiced)
	if row.TotalOpenAR.IsPositive() {
		pct, _ := row.AtRiskAR.Div(row.TotalOpenAR).Mul(decimal.NewFromInt(100)).Float64()
		row.AtRiskPct = pct
	}

	rate, _ := row.CollectionRate.Float64()
	row.PerformanceGrade = GradeFor(rate, row.AtRiskPct)
	return row
}

// GradeFor assigns the letter grade from a collection rate and an
// at-risk percentage, both on a 0-100 scale.
func GradeFor(collectionRate, atRiskPct float64) Grade {
	score := collectionRate - atRiskPenalty*atRiskPct
	switch {
	case score >= gradeAThreshold:
		return GradeA
	case score >= gradeBThreshold:
		return GradeB
	case score >= gradeCThreshold:
		return GradeC
	case score >= gradeDThreshold:
		return GradeD
	default:
		return GradeF
	}
}

// gradeRank orders grades best-first for sorting.
var gradeRank = map[Grade]int{GradeA: 0, GradeB: 1, GradeC: 2, GradeD: 3, GradeF: 4}

// Totals is the footer row of the performance table.
type Totals struct {
	Firms          int             `json:"firms"`
	TotalCases     int             `json:"total_cases"`
	TotalInvoiced  decimal.Decimal `json:"total_invoiced"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalOpenAR    decimal.Decimal `json:"total_open_ar"`
	AtRiskAR       decimal.Decimal `json:"at_risk_ar"`
	// CollectionRate is the weighted ratio sum(collected)/sum(invoiced).
	// Averaging per-firm rates would let small firms distort the
	// aggregate, so that is deliberately not what this is.
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

// ComputeTotals sums the footer row over the table.
func ComputeTotals(rows []LawFirmPerformance) Totals {
	t := Totals{
		TotalInvoiced:  decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalOpenAR:    decimal.Zero,
		AtRiskAR:       decimal.Zero,
	}
	for i := range rows {
		t.Firms++
		t.TotalCases += rows[i].TotalCases
		t.TotalInvoiced = t.TotalInvoiced.Add(rows[i].TotalInvoiced)
		t.TotalCollected = t.TotalCollected.Add(rows[i].TotalCollected)
		t.TotalOpenAR = t.TotalOpenAR.Add(rows[i].TotalOpenAR)
		t.AtRiskAR = t.AtRiskAR.Add(rows[i].AtRiskAR)
	}
	t.CollectionRate = ratePercent(t.TotalCollected, t.TotalInvoiced)
	return t
}

// SortField selects the column a performance table is ordered by.
type SortField string

const (
	SortName           SortField = "name"
	SortCases          SortField = "cases"
	SortOpenAR         SortField = "openAR"
	SortCollectionRate SortField = "collectionRate"
	SortGrade          SortField = "grade"
	SortAtRiskPct      SortField = "atRiskPct"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// firmCollator compares firm names case-insensitively with proper
// collation rather than byte order.
var firmCollator = collate.New(language.English, collate.IgnoreCase)

// Sort orders rows in place by the given field and direction. Unknown
// fields fall back to open AR, the table's default. Equal keys keep
// their relative order except grade sorts, where ties break by
// collection rate (better rate first).
func Sort(rows []LawFirmPerformance, field SortField, dir Direction) {
	less := lessFunc(field)
	sort.SliceStable(rows, func(i, j int) bool {
		if dir == Ascending {
			return less(&rows[i], &rows[j])
		}
		return less(&rows[j], &rows[i])
	})
}

func lessFunc(field SortField) func(a, b *LawFirmPerformance) bool {
	switch field {
	case SortName:
		return func(a, b *LawFirmPerformance) bool {
			return firmCollator.CompareString(a.LawFirmName, b.LawFirmName) < 0
		}
	case SortCases:
		return func(a, b *LawFirmPerformance) bool { return a.TotalCases < b.TotalCases }
	case SortCollectionRate:
		return func(a, b *LawFirmPerformance) bool { return a.CollectionRate.LessThan(b.CollectionRate) }
	case SortGrade:
		return func(a, b *LawFirmPerformance) bool {
			ra, rb := gradeRank[a.PerformanceGrade], gradeRank[b.PerformanceGrade]
			if ra != rb {
				return ra < rb
			}
			return a.CollectionRate.GreaterThan(b.CollectionRate)
		}
	case SortAtRiskPct:
		return func(a, b *LawFirmPerformance) bool { return a.AtRiskPct < b.AtRiskPct }
	default:
		return func(a, b *LawFirmPerformance) bool { return a.TotalOpenAR.LessThan(b.TotalOpenAR) }
	}
}

func ratePercent(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den).Mul(decimal.NewFromInt(100)).Round(1)
}

func roundDiv(sum, n int) int {
	return int(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}
