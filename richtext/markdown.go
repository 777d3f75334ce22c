package richtext

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

// FromMarkdown parses markdown into a canonical document. Raw HTML and
// images are dropped; everything else maps onto paragraph, heading, list,
// quote, code and link nodes.
func FromMarkdown(src []byte) map[string]any {
	root := markdown.Parser().Parse(text.NewReader(src))
	var children []any
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		children = append(children, mdBlock(n, src)...)
	}
	return Root(children)
}

func mdBlock(n ast.Node, src []byte) []any {
	switch node := n.(type) {
	case *ast.Heading:
		return []any{Heading(headingTag(node.Level), mdInlines(node, src, 0)...)}
	case *ast.Paragraph, *ast.TextBlock:
		runs := mdInlines(node, src, 0)
		if len(runs) == 0 {
			return nil
		}
		return []any{Paragraph(runs...)}
	case *ast.Blockquote:
		var runs []any
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if len(runs) > 0 {
				runs = append(runs, lineBreak())
			}
			runs = append(runs, mdInlines(c, src, 0)...)
		}
		return []any{element(TypeQuote, runs)}
	case *ast.List:
		list := element(TypeList, nil)
		list["listType"], list["tag"] = "bullet", "ul"
		if node.IsOrdered() {
			list["listType"], list["tag"] = "number", "ol"
		}
		list["start"] = 1
		var items []any
		i := 1
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			item := element(TypeListItem, mdListItem(c, src))
			item["value"] = i
			items = append(items, item)
			i++
		}
		list["children"] = items
		return []any{list}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var buf bytes.Buffer
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		var runs []any
		for i, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
			if i > 0 {
				runs = append(runs, lineBreak())
			}
			runs = append(runs, Text(line, 0))
		}
		return []any{element(TypeCode, runs)}
	}
	return nil
}

func mdListItem(n ast.Node, src []byte) []any {
	var out []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, nested := c.(*ast.List); nested {
			out = append(out, mdBlock(c, src)...)
			continue
		}
		out = append(out, mdInlines(c, src, 0)...)
	}
	return out
}

func mdInlines(n ast.Node, src []byte, format int) []any {
	var out []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			s := string(node.Segment.Value(src))
			if node.SoftLineBreak() {
				s += " "
			}
			if s != "" {
				out = append(out, Text(s, format))
			}
			if node.HardLineBreak() {
				out = append(out, lineBreak())
			}
		case *ast.String:
			out = append(out, Text(string(node.Value), format))
		case *ast.Emphasis:
			bit := FormatItalic
			if node.Level >= 2 {
				bit = FormatBold
			}
			out = append(out, mdInlines(node, src, format|bit)...)
		case *ast.CodeSpan:
			out = append(out, mdInlines(node, src, format|FormatCode)...)
		case *extast.Strikethrough:
			out = append(out, mdInlines(node, src, format|FormatStrikethrough)...)
		case *ast.Link:
			out = append(out, link(string(node.Destination), mdInlines(node, src, format)))
		case *ast.AutoLink:
			url := string(node.URL(src))
			out = append(out, link(url, []any{Text(string(node.Label(src)), format)}))
		}
	}
	return out
}

func link(url string, children []any) map[string]any {
	n := element(TypeLink, children)
	n["fields"] = map[string]any{
		"url":      url,
		"newTab":   false,
		"linkType": "custom",
	}
	return n
}

func lineBreak() map[string]any {
	return map[string]any{"type": TypeLineBreak, "version": 1}
}
