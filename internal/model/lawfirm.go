package model

import "sort"

// LawFirmAggregate groups the records of a single law firm. It is derived
// on each query and never persisted.
type LawFirmAggregate struct {
	LawFirmID   string
	LawFirmName string
	Records     []ReceivableRecord
}

// GroupByLawFirm buckets records by law_firm_id. Output order is stable
// (ascending firm ID) so downstream sorting is deterministic regardless
// of input order. The input slice is not mutated.
func GroupByLawFirm(records []ReceivableRecord) []LawFirmAggregate {
	byID := make(map[string]*LawFirmAggregate)
	for _, rec := range records {
		agg, ok := byID[rec.LawFirmID]
		if !ok {
			agg = &LawFirmAggregate{
				LawFirmID:   rec.LawFirmID,
				LawFirmName: rec.LawFirmName,
			}
			byID[rec.LawFirmID] = agg
		}
		agg.Records = append(agg.Records, rec)
	}

	out := make([]LawFirmAggregate, 0, len(byID))
	for _, agg := range byID {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LawFirmID < out[j].LawFirmID })
	return out
}

// Cases returns the distinct opportunity names for this firm.
func (a *LawFirmAggregate) Cases() []string {
	seen := make(map[string]struct{}, len(a.Records))
	var cases []string
	for _, rec := range a.Records {
		if _, ok := seen[rec.OpportunityName]; ok {
			continue
		}
		seen[rec.OpportunityName] = struct{}{}
		cases = append(cases, rec.OpportunityName)
	}
	return cases
}
