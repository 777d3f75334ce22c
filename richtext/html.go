package richtext

import (
	"html/template"
	"strings"
)

var blockedSchemes = []string{"javascript:", "data:", "vbscript:", "file:"}

// SanitizeURL returns a link target that is safe to put in an href. Script
// and data schemes are rejected (empty result), site-relative and fragment
// links pass through, and anything without a scheme gets https://.
func SanitizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	if strings.HasPrefix(u, "/") || strings.HasPrefix(u, "#") {
		return u
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return u
	}
	return "https://" + u
}

// HTML renders a canonical document. Anything that is not a canonical
// document renders as nothing.
func HTML(v any) template.HTML {
	if !IsCanonicalFormat(v) {
		return ""
	}
	var b strings.Builder
	for _, child := range Children(v) {
		writeBlock(&b, child)
	}
	return template.HTML(b.String())
}

func writeBlock(b *strings.Builder, v any) {
	node, ok := v.(map[string]any)
	if !ok {
		return
	}
	switch nodeType(node) {
	case TypeParagraph:
		if isBlankParagraph(node) {
			return
		}
		wrap(b, "p", node)
	case TypeHeading:
		tag, _ := node["tag"].(string)
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
		default:
			tag = "h2"
		}
		wrap(b, tag, node)
	case TypeQuote:
		wrap(b, "blockquote", node)
	case TypeList:
		tag := "ul"
		if lt, _ := node["listType"].(string); lt == "number" {
			tag = "ol"
		}
		b.WriteString("<" + tag + ">")
		children, _ := node["children"].([]any)
		for _, child := range children {
			writeBlock(b, child)
		}
		b.WriteString("</" + tag + ">")
	case TypeListItem:
		b.WriteString("<li>")
		children, _ := node["children"].([]any)
		for _, child := range children {
			if t := nodeType(child); t == TypeList {
				writeBlock(b, child)
			} else {
				writeInline(b, child)
			}
		}
		b.WriteString("</li>")
	case TypeCode:
		b.WriteString("<pre><code>")
		children, _ := node["children"].([]any)
		for _, child := range children {
			if nodeType(child) == TypeLineBreak {
				b.WriteString("\n")
				continue
			}
			b.WriteString(template.HTMLEscapeString(collectText(child, 0)))
		}
		b.WriteString("</code></pre>")
	}
}

func wrap(b *strings.Builder, tag string, node map[string]any) {
	b.WriteString("<" + tag + ">")
	children, _ := node["children"].([]any)
	for _, child := range children {
		writeInline(b, child)
	}
	b.WriteString("</" + tag + ">")
}

var formatTags = []struct {
	bit int
	tag string
}{
	{FormatCode, "code"},
	{FormatBold, "strong"},
	{FormatItalic, "em"},
	{FormatUnderline, "u"},
	{FormatStrikethrough, "s"},
}

func writeInline(b *strings.Builder, v any) {
	node, ok := v.(map[string]any)
	if !ok {
		return
	}
	switch nodeType(node) {
	case TypeText:
		text, _ := node["text"].(string)
		format, _ := toInt(node["format"])
		for _, f := range formatTags {
			if format&f.bit != 0 {
				b.WriteString("<" + f.tag + ">")
			}
		}
		b.WriteString(template.HTMLEscapeString(text))
		for i := len(formatTags) - 1; i >= 0; i-- {
			if format&formatTags[i].bit != 0 {
				b.WriteString("</" + formatTags[i].tag + ">")
			}
		}
	case TypeLineBreak:
		b.WriteString("<br>")
	case TypeLink, "autolink":
		href := ""
		if fields, ok := node["fields"].(map[string]any); ok {
			href, _ = fields["url"].(string)
		}
		if href == "" {
			href, _ = node["url"].(string)
		}
		href = SanitizeURL(href)
		if href != "" {
			b.WriteString(`<a href="` + template.HTMLEscapeString(href) + `">`)
		}
		children, _ := node["children"].([]any)
		for _, child := range children {
			writeInline(b, child)
		}
		if href != "" {
			b.WriteString("</a>")
		}
	}
}
