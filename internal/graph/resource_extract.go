package graph

import "strings"

// graphCandidate is one identifier discovered while walking an unwrapped
// tool result during resource extraction (spec.md §4.2 "Resource
// extraction"). The graph uses a separate, looser predicate than the
// Resource Indexer: "the graph wants coverage, not purity."
type graphCandidate struct {
	FieldName string
	Value     string
}

// extractGraphResources walks result (the same unwrapped envelope flatten
// reads) looking for ID-like fields under the graph's looser rules, and
// returns every match found.
func extractGraphResources(result any) []graphCandidate {
	var out []graphCandidate
	walkGraphResources(result, "", &out)
	return out
}

func walkGraphResources(node any, fieldName string, out *[]graphCandidate) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			walkGraphResources(val, k, out)
		}
	case []any:
		// Anti-explosion: only the first 10 items are traversed.
		limit := len(v)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			walkGraphResources(v[i], fieldName, out)
		}
	case string:
		if isGraphIDLikeField(fieldName) && isGraphIDLikeValue(v) {
			*out = append(*out, graphCandidate{FieldName: fieldName, Value: v})
		}
	}
}

// isGraphIDLikeField implements the graph's looser field-name predicate
// (spec.md §4.2): ends with "id", ends with "key" (but doesn't contain
// "api" or "secret"), or is exactly one of a small closed set.
func isGraphIDLikeField(fieldName string) bool {
	if fieldName == "" {
		return false
	}
	lower := strings.ToLower(fieldName)
	switch lower {
	case "uuid", "slug", "name", "code", "handle", "identifier":
		return true
	}
	if strings.HasSuffix(lower, "id") {
		return true
	}
	if strings.HasSuffix(lower, "key") && !strings.Contains(lower, "api") && !strings.Contains(lower, "secret") {
		return true
	}
	return false
}

// isGraphIDLikeValue implements the graph's looser value predicate
// (spec.md §4.2): length 1..100, no double spaces, ≤3 space-separated
// tokens, and doesn't start with http(s)://.
func isGraphIDLikeValue(value string) bool {
	if len(value) < 1 || len(value) > 100 {
		return false
	}
	if strings.Contains(value, "  ") {
		return false
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return false
	}
	if len(strings.Fields(value)) > 3 {
		return false
	}
	return true
}
