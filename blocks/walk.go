package blocks

import "tessera/richtext"

// Visitor is called for every field the walk reaches. Returning true
// replaces the field's value with the returned one; a replaced value is not
// walked any further.
type Visitor func(kind, field string, depth int, class FieldClass, value any) (any, bool)

// Walk visits the fields of a block and, recursively, of every object found
// in its arrays and nested objects. Rich-text and opaque values are handed
// to visit but never descended into. fields itself is never modified:
// changes are collected into copies, and changed reports whether any were
// made.
func Walk(kind string, fields map[string]any, classify Classifier, visit Visitor) (map[string]any, bool) {
	return walkObject(kind, fields, 0, classify, visit)
}

func walkObject(kind string, fields map[string]any, depth int, classify Classifier, visit Visitor) (map[string]any, bool) {
	var out map[string]any
	set := func(key string, v any) {
		if out == nil {
			out = make(map[string]any, len(fields))
			for k, existing := range fields {
				out[k] = existing
			}
		}
		out[key] = v
	}

	for key, value := range fields {
		class := classify(kind, key, depth, value)
		if replaced, ok := visit(kind, key, depth, class, value); ok {
			set(key, replaced)
			continue
		}
		if class == ClassRichText || class == ClassOpaque {
			continue
		}
		switch v := value.(type) {
		case []any:
			if items, changed := walkList(kind, v, depth+1, classify, visit); changed {
				set(key, items)
			}
		case map[string]any:
			if richtext.IsCanonicalFormat(v) {
				continue
			}
			if nested, changed := walkObject(kind, v, depth+1, classify, visit); changed {
				set(key, nested)
			}
		}
	}

	if out == nil {
		return fields, false
	}
	return out, true
}

func walkList(kind string, items []any, depth int, classify Classifier, visit Visitor) ([]any, bool) {
	var out []any
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		nested, changed := walkObject(kind, obj, depth, classify, visit)
		if !changed {
			continue
		}
		if out == nil {
			out = make([]any, len(items))
			copy(out, items)
		}
		out[i] = nested
	}
	if out == nil {
		return items, false
	}
	return out, true
}
