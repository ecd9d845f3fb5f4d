// Package model defines the receivable record and derived law-firm groupings.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceivableRecord is one invoice/case line item from the provider master
// data. Records are immutable once fetched; a case (opportunity) may span
// multiple invoice rows.
type ReceivableRecord struct {
	ProviderID      string          `json:"provider_id"`
	ProviderName    string          `json:"provider_name"`
	OpportunityName string          `json:"opportunity_name"`
	CaseStatus      string          `json:"case_status"`
	LawFirmID       string          `json:"law_firm_id"`
	LawFirmName     string          `json:"law_firm_name"`
	InvoiceAmount   decimal.Decimal `json:"invoice_amount"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	WriteOffAmount  decimal.Decimal `json:"write_off_amount"`
	OpenBalance     decimal.Decimal `json:"open_balance"`
	InvoiceDate     *time.Time      `json:"invoice_date"`
	CollectionDate  *time.Time      `json:"collection_date"`  // nil = not yet collected
	OriginationDate *time.Time      `json:"origination_date"` // fallback for age when invoice date missing
}

// balanceTolerance is the rounding slack allowed when checking the open
// balance identity. Upstream rounds line items independently, so exact
// equality cannot be assumed.
var balanceTolerance = decimal.NewFromFloat(0.01)

// BalanceConsistent reports whether open_balance matches
// invoice - collected - written_off within rounding tolerance. The
// invariant is soft: upstream does not enforce it, so callers log rather
// than reject on failure.
func (r *ReceivableRecord) BalanceConsistent() bool {
	expected := r.InvoiceAmount.Sub(r.CollectedAmount).Sub(r.WriteOffAmount)
	return r.OpenBalance.Sub(expected).Abs().LessThanOrEqual(balanceTolerance)
}

// AgeReference returns the date used for age calculations:
// invoice_date when present, origination_date otherwise. Returns nil when
// neither is set, in which case the record has no measurable age.
func (r *ReceivableRecord) AgeReference() *time.Time {
	if r.InvoiceDate != nil {
		return r.InvoiceDate
	}
	return r.OriginationDate
}

// AgeDays returns the age of the record in whole days relative to now,
// or 0 when no reference date exists. Future-dated records report 0.
func (r *ReceivableRecord) AgeDays(now time.Time) int {
	ref := r.AgeReference()
	if ref == nil {
		return 0
	}
	days := int(now.Sub(*ref).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// AgedAtLeastMonths reports whether the record's age reference is at
// least n calendar months before now.
func (r *ReceivableRecord) AgedAtLeastMonths(now time.Time, n int) bool {
	ref := r.AgeReference()
	if ref == nil {
		return false
	}
	return !ref.After(now.AddDate(0, -n, 0))
}

// DaysToCollection returns collection_date - invoice_date in whole days
// and true when both dates are present. Negative spans (bad data) report
// false.
func (r *ReceivableRecord) DaysToCollection() (int, bool) {
	if r.InvoiceDate == nil || r.CollectionDate == nil {
		return 0, false
	}
	days := int(r.CollectionDate.Sub(*r.InvoiceDate).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	return days, true
}
