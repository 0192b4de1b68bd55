package graph

import "github.com/mcplens/inspector/internal/resource"

// flatten walks the same MCP envelope shape the Resource Indexer parses
// (content[].text parsed as JSON — see resource.UnwrapEnvelope) and builds a
// flat map of dotted-path → leaf value (spec.md §4.2 "Flatten"):
//
//	objects: each leaf is recorded at both its bare key and its full dotted
//	path (bare key last-write-wins on collision, matching object iteration
//	order not being meaningful here);
//	arrays of length ≥ 1: recurse into the first element only, and record
//	the full array under "${prefix}_array".
func flatten(result any) map[string]any {
	unwrapped := resource.UnwrapEnvelope(result)
	out := make(map[string]any)
	flattenInto(unwrapped, "", out)
	return out
}

func flattenInto(node any, prefix string, out map[string]any) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			switch val.(type) {
			case map[string]any, []any:
				flattenInto(val, path, out)
			default:
				out[k] = val
				out[path] = val
			}
		}
	case []any:
		arrayKey := prefix + "_array"
		out[arrayKey] = v
		if len(v) > 0 {
			flattenInto(v[0], prefix, out)
		}
	default:
		if prefix != "" {
			out[prefix] = v
		}
	}
}
