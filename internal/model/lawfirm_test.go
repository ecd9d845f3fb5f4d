package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByLawFirm(t *testing.T) {
	records := []ReceivableRecord{
		{LawFirmID: "lf-2", LawFirmName: "Second Firm", OpportunityName: "Case B"},
		{LawFirmID: "lf-1", LawFirmName: "First Firm", OpportunityName: "Case A"},
		{LawFirmID: "lf-2", LawFirmName: "Second Firm", OpportunityName: "Case C"},
	}

	aggs := GroupByLawFirm(records)
	require.Len(t, aggs, 2)

	// Ascending firm ID regardless of input order.
	assert.Equal(t, "lf-1", aggs[0].LawFirmID)
	assert.Equal(t, "lf-2", aggs[1].LawFirmID)
	assert.Len(t, aggs[0].Records, 1)
	assert.Len(t, aggs[1].Records, 2)
	assert.Equal(t, "Second Firm", aggs[1].LawFirmName)
}

func TestGroupByLawFirm_Empty(t *testing.T) {
	assert.Empty(t, GroupByLawFirm(nil))
}

func TestCases_DeduplicatesOpportunities(t *testing.T) {
	agg := LawFirmAggregate{
		LawFirmID: "lf-1",
		Records: []ReceivableRecord{
			{OpportunityName: "Case A"},
			{OpportunityName: "Case A"}, // second invoice, same case
			{OpportunityName: "Case B"},
		},
	}
	cases := agg.Cases()
	assert.Len(t, cases, 2)
	assert.Contains(t, cases, "Case A")
	assert.Contains(t, cases, "Case B")
}
