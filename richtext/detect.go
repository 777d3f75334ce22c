package richtext

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// IsLegacyFormat reports whether v is a legacy document: a non-empty array
// whose first element is an object with a "type" and without a "root".
func IsLegacyFormat(v any) bool {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasType := first["type"]
	_, hasRoot := first["root"]
	return hasType && !hasRoot
}

// IsCanonicalFormat reports whether v is an object whose root node has
// type "root".
func IsCanonicalFormat(v any) bool {
	root := RootNode(v)
	if root == nil {
		return false
	}
	t, _ := root["type"].(string)
	return t == TypeRoot
}

// IsDoubleEncoded reports whether s is a canonical document that was stored
// as a JSON string instead of an object.
func IsDoubleEncoded(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return false
	}
	t, err := jsonparser.GetString([]byte(s), "root", "type")
	return err == nil && t == TypeRoot
}

// DecodeString parses a double-encoded document. ok is false when s is not
// one.
func DecodeString(s string) (map[string]any, bool) {
	if !IsDoubleEncoded(s) {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &doc); err != nil {
		return nil, false
	}
	if !IsCanonicalFormat(doc) {
		return nil, false
	}
	return doc, true
}
