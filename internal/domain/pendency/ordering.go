package pendency

import (
	"sort"
)

// Deduplicate drops records sharing creditor, original amount and due date.
// The first occurrence wins and relative order is preserved, so applying it
// to its own output is a no-op.
func Deduplicate(records []DebtRecord) []DebtRecord {
	if len(records) == 0 {
		return []DebtRecord{}
	}
	seen := make(map[string]struct{}, len(records))
	out := make([]DebtRecord, 0, len(records))
	for _, r := range records {
		key := r.dedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortByPriority orders records by status priority descending, then by due
// date ascending. The sort is stable for records equal on both keys.
func SortByPriority(records []DebtRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := records[i].Status.Priority(), records[j].Status.Priority()
		if pi != pj {
			return pi > pj
		}
		return records[i].DueDate.Before(records[j].DueDate)
	})
}

// Reconcile merges per-provider batches in the given order, then deduplicates and sorts.
func Reconcile(batches ...[]DebtRecord) []DebtRecord {
	size := 0
	for _, b := range batches {
		size += len(b)
	}
	merged := make([]DebtRecord, 0, size)
	for _, b := range batches {
		merged = append(merged, b...)
	}
	out := Deduplicate(merged)
	SortByPriority(out)
	return out
}
