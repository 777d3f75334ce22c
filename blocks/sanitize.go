package blocks

import (
	"strconv"
	"strings"

	"tessera/richtext"
)

// SafeText coerces a stored value into display text. Strings are trimmed,
// numbers and booleans are formatted, anything else is empty.
func SafeText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

// SafeURL returns a sanitized link target or "".
func SafeURL(v any) string {
	return richtext.SanitizeURL(SafeText(v))
}

// SafeBool reads a checkbox value.
func SafeBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Media is an expanded media reference.
type Media struct {
	ID     string
	URL    string
	Alt    string
	Width  int
	Height int
}

// SafeMedia reads a media reference: either a bare id (or, before
// hydration, an image URL) or an expanded object. It returns nil when
// nothing usable is there.
func SafeMedia(v any) *Media {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if isImageValue(s) {
			return &Media{URL: SafeURL(s)}
		}
		return &Media{ID: s}
	case map[string]any:
		m := &Media{
			Alt: SafeText(val["alt"]),
		}
		for _, key := range []string{"id", "_id", "_ref"} {
			if id := SafeText(val[key]); id != "" {
				m.ID = id
				break
			}
		}
		if u := SafeText(val["url"]); u != "" {
			m.URL = SafeURL(u)
		} else if name := SafeText(val["filename"]); name != "" {
			m.URL = "/media/" + name
		}
		m.Width, _ = toInt(val["width"])
		m.Height, _ = toInt(val["height"])
		if m.ID == "" && m.URL == "" {
			return nil
		}
		return m
	}
	return nil
}

// SafeRichText returns v as a canonical document, or nil when v is nil.
// A bare array of canonical block nodes is wrapped in a root; legacy arrays
// and strings are converted.
func SafeRichText(v any) any {
	if v == nil {
		return nil
	}
	if richtext.IsCanonicalFormat(v) {
		return v
	}
	if nodes, ok := v.([]any); ok && hasTypedLeaves(nodes) {
		return richtext.Root(nodes)
	}
	doc, _ := richtext.Coerce(v)
	return doc
}

// hasTypedLeaves tells canonical node arrays from legacy ones: canonical
// inline nodes always carry a type, legacy text leaves never do.
func hasTypedLeaves(nodes []any) bool {
	if len(nodes) == 0 {
		return false
	}
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			return false
		}
		children, _ := node["children"].([]any)
		for _, c := range children {
			leaf, ok := c.(map[string]any)
			if !ok {
				return false
			}
			if _, typed := leaf["type"].(string); !typed {
				return false
			}
		}
	}
	return true
}
