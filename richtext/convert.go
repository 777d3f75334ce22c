package richtext

import (
	"fmt"
	"strings"
)

var legacyMarks = []struct {
	key string
	bit int
}{
	{"bold", FormatBold},
	{"italic", FormatItalic},
	{"underline", FormatUnderline},
	{"strikethrough", FormatStrikethrough},
	{"code", FormatCode},
}

// ConvertLegacyToCanonical converts a root-less legacy node array.
// Paragraph and heading nodes are kept, anything else is dropped, and so is
// any node left without text runs. Canonical input is returned as is and
// everything else becomes the empty document.
func ConvertLegacyToCanonical(v any) map[string]any {
	if IsCanonicalFormat(v) {
		return v.(map[string]any)
	}
	nodes, ok := v.([]any)
	if !ok {
		return Empty()
	}

	children := make([]any, 0, len(nodes))
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		runs := legacyRuns(node["children"])
		if len(runs) == 0 {
			continue
		}
		switch nodeType(node) {
		case TypeParagraph:
			children = append(children, Paragraph(runs...))
		case TypeHeading:
			children = append(children, Heading(headingTag(node["level"]), runs...))
		}
	}
	return Root(children)
}

func legacyRuns(v any) []any {
	leaves, ok := v.([]any)
	if !ok {
		return nil
	}
	var runs []any
	for _, raw := range leaves {
		leaf, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		text, hasText := leaf["text"]
		if !hasText {
			continue
		}
		format := 0
		for _, m := range legacyMarks {
			if on, _ := leaf[m.key].(bool); on {
				format |= m.bit
			}
		}
		runs = append(runs, Text(stringOf(text), format))
	}
	return runs
}

func headingTag(level any) string {
	n, ok := toInt(level)
	if !ok || n < 1 {
		n = 1
	}
	if n > 6 {
		n = 6
	}
	return fmt.Sprintf("h%d", n)
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// ConvertPlainTextToCanonical turns every non-blank line into a paragraph.
func ConvertPlainTextToCanonical(text string) map[string]any {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return FromLines(lines)
}

// Coerce brings any stored rich-text field value into canonical form.
// changed is false when v is already canonical or nil; a nil value means the
// field was never filled and is left alone.
func Coerce(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		if doc, ok := DecodeString(val); ok {
			return doc, true
		}
		return ConvertPlainTextToCanonical(val), true
	case []any:
		if IsLegacyFormat(val) {
			return ConvertLegacyToCanonical(val), true
		}
		var lines []string
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				lines = append(lines, strings.TrimSpace(s))
			}
		}
		return FromLines(lines), true
	}
	if IsCanonicalFormat(v) {
		return v, false
	}
	return Empty(), true
}
