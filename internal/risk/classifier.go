// Package risk classifies per-firm at-risk receivables and scores firms.
package risk

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/claimline/receivables-cli/internal/model"
	"github.com/claimline/receivables-cli/internal/status"
)

// Level is the ordinal risk label for a firm. UI elements branch on
// level identity, so levels map from score through the named thresholds
// below and every score in [0,100] maps to exactly one level.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// Score thresholds for the ordinal levels, ascending.
const (
	MediumScoreThreshold   = 30.0
	HighScoreThreshold     = 50.0
	CriticalScoreThreshold = 70.0
)

// Age thresholds for the time-based buckets, in calendar months.
const (
	StalePendingMonths = 18
	VeryOldMonths      = 36
)

// Risk score weights. The score is monotonically increasing in the
// at-risk percentage and decreasing in the collection rate:
// score = atRiskWeight*atRiskPct + collectionWeight*(100 - collectionRate),
// clamped to [0,100].
const (
	atRiskWeight     = 0.6
	collectionWeight = 0.4
)

// Bucket is one at-risk category for a firm.
type Bucket struct {
	Cases int             `json:"cases"`
	AR    decimal.Decimal `json:"ar"`
}

// LawFirmRisk is the risk profile of one law firm.
type LawFirmRisk struct {
	LawFirmID   string `json:"law_firm_id"`
	LawFirmName string `json:"law_firm_name"`

	// The three buckets may overlap: a case can be both stale and very
	// old. Totals below are union-deduplicated by case, never the naive
	// sum of bucket counts.
	NoLongerRepresent Bucket `json:"no_longer_represent"`
	StalePending      Bucket `json:"stale_pending"`
	VeryOld           Bucket `json:"very_old"`

	TotalAtRiskCases int             `json:"total_at_risk_cases"`
	TotalAtRiskAR    decimal.Decimal `json:"total_at_risk_ar"`
	TotalOpenAR      decimal.Decimal `json:"total_open_ar"`
	AtRiskPct        float64         `json:"at_risk_pct"`

	// Settled-but-undisbursed cases are tracked separately: they are at
	// risk of delayed payout, not of non-collection, and never join the
	// at-risk buckets above.
	DelayedDisbursementCases int             `json:"delayed_disbursement_cases"`
	DelayedDisbursementAR    decimal.Decimal `json:"delayed_disbursement_ar"`
	AvgDisbursementDelayDays int             `json:"avg_disbursement_delay_days"`

	RiskScore float64 `json:"risk_score"`
	RiskLevel Level   `json:"risk_level"`
}

// ComputeRiskProfile classifies every firm in the record set and returns
// profiles ordered by risk score descending (ties by firm ID for a
// stable order). now is a parameter so classifications are reproducible
// in tests.
func ComputeRiskProfile(records []model.ReceivableRecord, now time.Time) []LawFirmRisk {
	aggregates := model.GroupByLawFirm(records)
	out := make([]LawFirmRisk, 0, len(aggregates))
	for i := range aggregates {
		out = append(out, classifyFirm(&aggregates[i], now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].LawFirmID < out[j].LawFirmID
	})
	return out
}

func classifyFirm(agg *model.LawFirmAggregate, now time.Time) LawFirmRisk {
	r := LawFirmRisk{
		LawFirmID:             agg.LawFirmID,
		LawFirmName:           agg.LawFirmName,
		NoLongerRepresent:     Bucket{AR: decimal.Zero},
		StalePending:          Bucket{AR: decimal.Zero},
		VeryOld:               Bucket{AR: decimal.Zero},
		TotalAtRiskAR:         decimal.Zero,
		TotalOpenAR:           decimal.Zero,
		DelayedDisbursementAR: decimal.Zero,
	}

	nlrCases := make(map[string]struct{})
	staleCases := make(map[string]struct{})
	oldCases := make(map[string]struct{})
	atRiskCases := make(map[string]struct{})
	delayedCases := make(map[string]struct{})

	invoiced := decimal.Zero
	collected := decimal.Zero
	var delaySum, delayN int

	for i := range agg.Records {
		rec := &agg.Records[i]
		invoiced = invoiced.Add(rec.InvoiceAmount)
		collected = collected.Add(rec.CollectedAmount)

		if settledPending(rec.CaseStatus) {
			delayedCases[rec.OpportunityName] = struct{}{}
			r.DelayedDisbursementAR = r.DelayedDisbursementAR.Add(rec.OpenBalance)
			delaySum += disbursementDelayDays(rec, now)
			delayN++
			continue
		}

		if !rec.OpenBalance.IsPositive() {
			continue
		}
		r.TotalOpenAR = r.TotalOpenAR.Add(rec.OpenBalance)

		inBucket := false
		if rec.CaseStatus == status.NoLongerRepresent {
			nlrCases[rec.OpportunityName] = struct{}{}
			r.NoLongerRepresent.AR = r.NoLongerRepresent.AR.Add(rec.OpenBalance)
			inBucket = true
		}
		if pendingStatus(rec.CaseStatus) && rec.AgedAtLeastMonths(now, StalePendingMonths) {
			staleCases[rec.OpportunityName] = struct{}{}
			r.StalePending.AR = r.StalePending.AR.Add(rec.OpenBalance)
			inBucket = true
		}
		if rec.AgedAtLeastMonths(now, VeryOldMonths) {
			oldCases[rec.OpportunityName] = struct{}{}
			r.VeryOld.AR = r.VeryOld.AR.Add(rec.OpenBalance)
			inBucket = true
		}

		// Union total: each record's AR counted once no matter how many
		// buckets it lands in.
		if inBucket {
			atRiskCases[rec.OpportunityName] = struct{}{}
			r.TotalAtRiskAR = r.TotalAtRiskAR.Add(rec.OpenBalance)
		}
	}

	r.NoLongerRepresent.Cases = len(nlrCases)
	r.StalePending.Cases = len(staleCases)
	r.VeryOld.Cases = len(oldCases)
	r.TotalAtRiskCases = len(atRiskCases)
	r.DelayedDisbursementCases = len(delayedCases)
	if delayN > 0 {
		r.AvgDisbursementDelayDays = int(math.Round(float64(delaySum) / float64(delayN)))
	}

	if r.TotalOpenAR.IsPositive() {
		pct, _ := r.TotalAtRiskAR.Div(r.TotalOpenAR).Mul(decimal.NewFromInt(100)).Float64()
		r.AtRiskPct = pct
	}

	collectionRate := 0.0
	if invoiced.IsPositive() {
		collectionRate, _ = collected.Div(invoiced).Mul(decimal.NewFromInt(100)).Float64()
	}

	r.RiskScore = ScoreFirm(r.AtRiskPct, collectionRate)
	r.RiskLevel = LevelForScore(r.RiskScore)
	return r
}

// ScoreFirm computes the composite 0-100 risk score from the firm's
// at-risk percentage and collection rate. Pure and deterministic.
func ScoreFirm(atRiskPct, collectionRate float64) float64 {
	score := atRiskWeight*atRiskPct + collectionWeight*(100-collectionRate)
	return math.Min(100, math.Max(0, score))
}

// LevelForScore maps a score to its ordinal level. Total over [0,100].
func LevelForScore(score float64) Level {
	switch {
	case score >= CriticalScoreThreshold:
		return LevelCritical
	case score >= HighScoreThreshold:
		return LevelHigh
	case score >= MediumScoreThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// pendingStatus reports whether a status counts as pending for the
// stale-pending bucket under either pinned vocabulary.
func pendingStatus(s string) bool {
	return status.Period.Pending.Contains(s) || status.Portfolio.Pending.Contains(s)
}

// settledPending reports whether a status means settled but not yet
// disbursed under either pinned vocabulary.
func settledPending(s string) bool {
	return status.Period.SettledPending.Contains(s) || status.Portfolio.SettledPending.Contains(s)
}

// disbursementDelayDays measures how long a settled case has waited for
// payout: days since collection when a collection date exists, days
// since the age reference otherwise.
func disbursementDelayDays(rec *model.ReceivableRecord, now time.Time) int {
	ref := rec.CollectionDate
	if ref == nil {
		ref = rec.AgeReference()
	}
	if ref == nil {
		return 0
	}
	days := int(now.Sub(*ref).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
