package resource

import "encoding/json"

// UnwrapEnvelope implements the MCP tool-call envelope unwrapping rule
// shared by the Resource Indexer and the Resource Graph's flatten step
// (spec.md §4.1, §9 "Design notes" — preserve the 0/1/≥2-parsed rule
// exactly):
//
//	0 content[].text values parse as JSON → the original response
//	1 content[].text value parses as JSON → that parsed value
//	≥2 content[].text values parse as JSON → the slice of parsed values
//
// response is an already-decoded JSON value (map[string]any / []any /
// primitives), matching the shape encoding/json produces via
// json.Unmarshal(data, &any{}).
func UnwrapEnvelope(response any) any {
	obj, ok := response.(map[string]any)
	if !ok {
		return response
	}
	contentRaw, ok := obj["content"]
	if !ok {
		return response
	}
	content, ok := contentRaw.([]any)
	if !ok {
		return response
	}

	var parsed []any
	for _, item := range content {
		itemObj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := itemObj["type"].(string); t != "text" {
			continue
		}
		text, ok := itemObj["text"].(string)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err == nil {
			parsed = append(parsed, v)
		}
	}

	switch len(parsed) {
	case 0:
		return response
	case 1:
		return parsed[0]
	default:
		return parsed
	}
}
