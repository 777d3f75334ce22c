package richtext

import "strings"

const (
	maxExtractDepth  = 5
	maxExtractLength = 500
)

// ExtractPlainText flattens a document (or a JSON string holding one) into
// plain text, one line per block node. Text that turns out to be yet another
// encoded document is unwrapped again, at most five levels deep. The result
// is trimmed and cut to 500 characters.
func ExtractPlainText(v any) string {
	return truncate(extract(v, 0), maxExtractLength)
}

func extract(v any, depth int) string {
	if depth > maxExtractDepth {
		return ""
	}
	if s, ok := v.(string); ok {
		doc, ok := DecodeString(s)
		if !ok {
			return strings.TrimSpace(s)
		}
		v = doc
	}

	var lines []string
	for _, child := range Children(v) {
		if line := strings.TrimSpace(collectText(child, 0)); line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if IsDoubleEncoded(text) {
		return extract(text, depth+1)
	}
	return text
}

func collectText(v any, depth int) string {
	if depth > maxExtractDepth {
		return ""
	}
	node, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if nodeType(node) == TypeText {
		s, _ := node["text"].(string)
		return s
	}
	children, _ := node["children"].([]any)
	var b strings.Builder
	for _, child := range children {
		b.WriteString(collectText(child, depth+1))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
