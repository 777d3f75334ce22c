// Package richtext holds the canonical rich-text document shape used by
// every block field that carries formatted text, plus the converters that
// bring older stored shapes (root-less node arrays, plain strings,
// double-encoded JSON) into it.
//
// Documents are kept as generic JSON maps rather than structs so that node
// attributes this package does not know about survive a load/save cycle.
package richtext

// Text format bits.
const (
	FormatBold = 1 << iota
	FormatItalic
	FormatUnderline
	FormatStrikethrough
	FormatCode
)

const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeText      = "text"
	TypeList      = "list"
	TypeListItem  = "listitem"
	TypeQuote     = "quote"
	TypeLink      = "link"
	TypeCode      = "code"
	TypeLineBreak = "linebreak"
)

// Empty returns the canonical empty document: a root with no children.
func Empty() map[string]any {
	return Root(nil)
}

// Root wraps block-level nodes in a document.
func Root(children []any) map[string]any {
	if children == nil {
		children = []any{}
	}
	return map[string]any{
		"root": map[string]any{
			"children":  children,
			"direction": "ltr",
			"format":    "",
			"indent":    0,
			"type":      TypeRoot,
			"version":   1,
		},
	}
}

func element(nodeType string, children []any) map[string]any {
	if children == nil {
		children = []any{}
	}
	return map[string]any{
		"children":  children,
		"direction": "ltr",
		"format":    "",
		"indent":    0,
		"type":      nodeType,
		"version":   1,
	}
}

// Paragraph builds a paragraph node.
func Paragraph(children ...any) map[string]any {
	return element(TypeParagraph, children)
}

// Heading builds a heading node; tag is "h1".."h6".
func Heading(tag string, children ...any) map[string]any {
	n := element(TypeHeading, children)
	n["tag"] = tag
	return n
}

// Text builds a text run.
func Text(s string, format int) map[string]any {
	return map[string]any{
		"detail":  0,
		"format":  format,
		"mode":    "normal",
		"style":   "",
		"text":    s,
		"type":    TypeText,
		"version": 1,
	}
}

// FromLines builds one single-run paragraph per line.
func FromLines(lines []string) map[string]any {
	children := make([]any, 0, len(lines))
	for _, line := range lines {
		children = append(children, Paragraph(Text(line, 0)))
	}
	return Root(children)
}

// RootNode returns the root map of a canonical document, or nil.
func RootNode(v any) map[string]any {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	root, _ := doc["root"].(map[string]any)
	return root
}

// Children returns the block-level children of a canonical document.
func Children(v any) []any {
	root := RootNode(v)
	if root == nil {
		return nil
	}
	children, _ := root["children"].([]any)
	return children
}

// IsEmpty reports whether v is a canonical document without children.
func IsEmpty(v any) bool {
	return IsCanonicalFormat(v) && len(Children(v)) == 0
}

func nodeType(v any) string {
	n, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	t, _ := n["type"].(string)
	return t
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
