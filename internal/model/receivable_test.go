package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBalanceConsistent_Exact(t *testing.T) {
	r := ReceivableRecord{
		InvoiceAmount:   decimal.NewFromInt(1000),
		CollectedAmount: decimal.NewFromInt(600),
		WriteOffAmount:  decimal.NewFromInt(100),
		OpenBalance:     decimal.NewFromInt(300),
	}
	assert.True(t, r.BalanceConsistent())
}

func TestBalanceConsistent_WithinTolerance(t *testing.T) {
	// Off by a rounding cent.
	r := ReceivableRecord{
		InvoiceAmount:   decimal.NewFromFloat(100.00),
		CollectedAmount: decimal.NewFromFloat(33.33),
		WriteOffAmount:  decimal.Zero,
		OpenBalance:     decimal.NewFromFloat(66.66),
	}
	assert.True(t, r.BalanceConsistent())
}

func TestBalanceConsistent_Violated(t *testing.T) {
	r := ReceivableRecord{
		InvoiceAmount:   decimal.NewFromInt(1000),
		CollectedAmount: decimal.NewFromInt(600),
		WriteOffAmount:  decimal.Zero,
		OpenBalance:     decimal.NewFromInt(500),
	}
	assert.False(t, r.BalanceConsistent())
}

func TestAgeReference_PrefersInvoiceDate(t *testing.T) {
	inv := datePtr(2024, time.March, 1)
	orig := datePtr(2023, time.June, 1)
	r := ReceivableRecord{InvoiceDate: inv, OriginationDate: orig}
	require.NotNil(t, r.AgeReference())
	assert.Equal(t, *inv, *r.AgeReference())
}

func TestAgeReference_FallsBackToOrigination(t *testing.T) {
	orig := datePtr(2023, time.June, 1)
	r := ReceivableRecord{OriginationDate: orig}
	require.NotNil(t, r.AgeReference())
	assert.Equal(t, *orig, *r.AgeReference())
}

func TestAgeReference_NeitherSet(t *testing.T) {
	r := ReceivableRecord{}
	assert.Nil(t, r.AgeReference())
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	r := ReceivableRecord{InvoiceDate: datePtr(2025, time.January, 1)}
	assert.Equal(t, 30, r.AgeDays(now))
}

func TestAgeDays_FutureDatedReportsZero(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := ReceivableRecord{InvoiceDate: datePtr(2025, time.June, 1)}
	assert.Equal(t, 0, r.AgeDays(now))
}

func TestAgeDays_NoReferenceDate(t *testing.T) {
	r := ReceivableRecord{}
	assert.Equal(t, 0, r.AgeDays(time.Now()))
}

func TestAgedAtLeastMonths(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	old := ReceivableRecord{InvoiceDate: datePtr(2021, time.January, 1)}
	assert.True(t, old.AgedAtLeastMonths(now, 36))

	boundary := ReceivableRecord{InvoiceDate: datePtr(2022, time.June, 15)}
	assert.True(t, boundary.AgedAtLeastMonths(now, 36))

	young := ReceivableRecord{InvoiceDate: datePtr(2024, time.January, 1)}
	assert.False(t, young.AgedAtLeastMonths(now, 36))

	undated := ReceivableRecord{}
	assert.False(t, undated.AgedAtLeastMonths(now, 36))
}

func TestDaysToCollection(t *testing.T) {
	r := ReceivableRecord{
		InvoiceDate:    datePtr(2024, time.January, 1),
		CollectionDate: datePtr(2024, time.February, 15),
	}
	days, ok := r.DaysToCollection()
	require.True(t, ok)
	assert.Equal(t, 45, days)
}

func TestDaysToCollection_MissingDates(t *testing.T) {
	r := ReceivableRecord{InvoiceDate: datePtr(2024, time.January, 1)}
	_, ok := r.DaysToCollection()
	assert.False(t, ok)

	r = ReceivableRecord{CollectionDate: datePtr(2024, time.January, 1)}
	_, ok = r.DaysToCollection()
	assert.False(t, ok)
}

func TestDaysToCollection_NegativeSpan(t *testing.T) {
	r := ReceivableRecord{
		InvoiceDate:    datePtr(2024, time.March, 1),
		CollectionDate: datePtr(2024, time.January, 1),
	}
	_, ok := r.DaysToCollection()
	assert.False(t, ok)
}
