package resource

import (
	"fmt"
	"math"
	"strconv"
)

// candidate is one identifier found during traversal, before entry-id
// assignment and dedup.
type candidate struct {
	Value         string
	Type          Type
	FieldName     string
	FieldPath     string
	ParentContext map[string]any
}

// extractIdentifiers performs the depth-first walk of spec.md §4.1 over an
// already-unwrapped response value.
func extractIdentifiers(value any) []candidate {
	var out []candidate
	walk(value, "", "", nil, &out)
	return out
}

func walk(node any, fieldName, fieldPath string, parentObj map[string]any, out *[]candidate) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			walk(val, k, joinFieldPath(fieldPath, k), v, out)
		}
	case []any:
		for i, elem := range v {
			childPath := arrayFieldPath(fieldPath, i)
			if elemObj, ok := elem.(map[string]any); ok {
				// The element itself becomes the parentObj for its own
				// sub-walk (spec.md §4.1 "Array" rule).
				walk(elemObj, fieldName, childPath, parentObj, out)
			} else {
				walk(elem, fieldName, childPath, parentObj, out)
			}
		}
	case string:
		tryEmitString(v, fieldName, fieldPath, parentObj, out)
	case float64:
		tryEmitNumeric(v, fieldName, fieldPath, parentObj, out)
	}
}

func joinFieldPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func arrayFieldPath(prefix string, index int) string {
	return fmt.Sprintf("%s[%d]", prefix, index)
}

func tryEmitString(value, fieldName, fieldPath string, parentObj map[string]any, out *[]candidate) {
	idLike := isIDLikeField(fieldName)
	if !idLike && !isStrongPattern(value) {
		return
	}
	typ, ok := detectType(value)
	if !ok {
		return
	}
	*out = append(*out, candidate{
		Value:         value,
		Type:          typ,
		FieldName:     fieldName,
		FieldPath:     fieldPath,
		ParentContext: sanitizeParentContext(parentObj, fieldName),
	})
}

func tryEmitNumeric(value float64, fieldName, fieldPath string, parentObj map[string]any, out *[]candidate) {
	if !isIDLikeField(fieldName) || value <= 100 {
		return
	}
	*out = append(*out, candidate{
		Value:         formatNumber(value),
		Type:          TypeNumeric,
		FieldName:     fieldName,
		FieldPath:     fieldPath,
		ParentContext: sanitizeParentContext(parentObj, fieldName),
	})
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sanitizeParentContext builds the parentContext snapshot of spec.md §4.1:
// only primitive sibling fields are retained (excluding the focal field
// itself), and strings over 200 characters are truncated with a trailing
// "...". This threshold is intentionally independent of the Resource
// Graph's word-count-based redaction (spec.md §9).
func sanitizeParentContext(parentObj map[string]any, excludeKey string) map[string]any {
	if parentObj == nil {
		return nil
	}
	out := make(map[string]any, len(parentObj))
	for k, v := range parentObj {
		if k == excludeKey {
			continue
		}
		switch val := v.(type) {
		case string:
			if len([]rune(val)) > 200 {
				val = string([]rune(val)[:200]) + "..."
			}
			out[k] = val
		case float64, bool:
			out[k] = val
		}
	}
	return out
}
