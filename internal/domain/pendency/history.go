package pendency

import (
	"context"
	"strings"
)

// MaxHistoryEntries is the default cap on stored queries per owner
const MaxHistoryEntries = 10

// HistoryStore keeps the most recent raw queries of an owner, newest first.
// Adding a query already present moves it to the front; the list never
// exceeds the configured cap.
type HistoryStore interface {
	Add(ctx context.Context, owner, query string) error
	List(ctx context.Context, owner string) ([]string, error)
	Clear(ctx context.Context, owner string) error
}

// PushHistory applies the history rules to an in-memory list and returns
// the new list. Stores without server-side list operations use it directly.
func PushHistory(entries []string, query string, limit int) []string {
	if limit <= 0 {
		limit = MaxHistoryEntries
	}
	out := make([]string, 0, min(len(entries)+1, limit))
	out = append(out, query)
	for _, e := range entries {
		if len(out) == limit {
			break
		}
		if e != query {
			out = append(out, e)
		}
	}
	return out
}

// ValidateHistoryEntry checks owner and query and returns the trimmed query
func ValidateHistoryEntry(owner, query string) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", ErrEmptyHistoryOwner
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}
