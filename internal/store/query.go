package store

import (
	"sort"
	"strings"
)

// Predicate is a conjunctive field -> required value mapping used to scope
// reads and writes. A nil value means the column must be NULL.
type Predicate map[string]any

// Changes carries a partial update: only the listed columns are written.
type Changes map[string]any

// ListParams bundles filtering, search, sorting and pagination for GetAll.
type ListParams struct {
	Predicate    Predicate
	Search       string
	SearchFields []string
	Page         int
	Limit        int
	SortBy       string
	Order        string // "asc" or "desc"
}

// Page is the pagination envelope returned by GetAll.
type Page[T any] struct {
	Results        []T   `json:"results"`
	TotalItems     int64 `json:"total_items"`
	TotalPage      int64 `json:"total_page"`
	RecordsPerPage int   `json:"records_per_page"`
}

// likeEscape neutralizes LIKE wildcards in user-supplied search strings.
// '!' is the escape character; it works the same on MySQL and SQLite.
func likeEscape(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// sortedKeys gives predicates a stable column order so generated SQL is
// deterministic (and testable with sqlmock).
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appendPredicate adds one clause per known column. Unknown column names
// are skipped, tolerating stale field names from clients.
func appendPredicate(conds []string, args []any, pred Predicate, known map[string]struct{}) ([]string, []any) {
	for _, col := range sortedKeys(pred) {
		if _, ok := known[col]; !ok {
			continue
		}
		val := pred[col]
		if val == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, col+" = ?")
		args = append(args, val)
	}
	return conds, args
}
