package core

import "strings"

// Apply returns the records of l selected by spec, in ledger order.
// The ledger is not modified and the returned slice is a copy.
//
// Dimensions combine with AND. Within the query, client, id and advisor
// combine with OR. A date range excludes records without a creation date.
func Apply(l *Ledger, spec FilterSpec) []Record {
	if l == nil {
		return []Record{}
	}
	if spec.IsEmpty() {
		return l.Records()
	}

	lots := toSet(spec.Lots)
	advisors := toSet(spec.Advisors)
	query := strings.ToLower(strings.TrimSpace(spec.Query))

	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		if matches(r, lots, advisors, spec.DateRange, query) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r Record, lots, advisors map[string]struct{}, dr *DateRange, query string) bool {
	if len(lots) > 0 {
		if _, ok := lots[r.Lot]; !ok {
			return false
		}
	}
	if len(advisors) > 0 {
		if _, ok := advisors[r.Advisor]; !ok {
			return false
		}
	}
	if dr != nil {
		if !r.CreatedAt.Valid || !dr.Contains(r.CreatedAt.Time) {
			return false
		}
	}
	if query != "" {
		if !containsFold(r.Client, query) && !containsFold(r.ID, query) && !containsFold(r.Advisor, query) {
			return false
		}
	}
	return true
}

// containsFold reports whether s contains the already-lowercased needle.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
