package migrate

import (
	"tessera/blocks"
	"tessera/richtext"
)

// Pass is one repair applied to stored content. Block repairs a single
// section block, Field a rich-text document stored directly on a document
// (a post's content). Both return their input when there is nothing to do;
// the engine finds out what changed by comparing fingerprints.
type Pass struct {
	Name  string
	Block func(block map[string]any) map[string]any
	Field func(value any) any
}

// visitorPass runs a field visitor over every block.
func visitorPass(name string, classify blocks.Classifier, visit blocks.Visitor, field func(any) any) Pass {
	return Pass{
		Name: name,
		Block: func(block map[string]any) map[string]any {
			kind, _, _ := blocks.KindOf(block)
			out, _ := blocks.Walk(kind, block, classify, visit)
			return out
		},
		Field: field,
	}
}

// FormatMigration brings blocks into their normalized shape: legacy and
// plain-text rich text become canonical documents, missing metadata and
// defaults are filled in. Blocks the normalizer rejects are kept as stored.
func FormatMigration(n *blocks.Normalizer) Pass {
	return Pass{
		Name: "format-migration",
		Block: func(block map[string]any) map[string]any {
			out, err := n.Normalize(block)
			if err != nil {
				return block
			}
			return out
		},
		Field: func(value any) any {
			out, _ := richtext.Coerce(value)
			return out
		},
	}
}

// EmptyStructureFix collapses rich text without any content (no children
// list, or only blank paragraphs) into the canonical empty document.
func EmptyStructureFix(classify blocks.Classifier) Pass {
	collapse := func(value any) any {
		out, _ := richtext.CollapseEmpty(value)
		return out
	}
	return visitorPass("empty-structure-fix", classify,
		func(_, _ string, _ int, class blocks.FieldClass, value any) (any, bool) {
			if class != blocks.ClassRichText {
				return nil, false
			}
			return richtext.CollapseEmpty(value)
		},
		collapse,
	)
}

// CorruptionFix repairs documents that ended up in the wrong encoding. A
// plain-text field holding a JSON string of a document gets the document's
// plain text; one holding a document object is flattened only when the
// catalog declares it as text, so rich text on unknown kinds survives. A
// rich-text field holding a JSON string of a document gets the decoded
// document.
func CorruptionFix(catalog *blocks.Catalog) Pass {
	classify := blocks.NewClassifier(catalog)
	decode := func(value any) (any, bool) {
		s, ok := value.(string)
		if !ok {
			return nil, false
		}
		doc, ok := richtext.DecodeString(s)
		if !ok {
			return nil, false
		}
		return doc, true
	}
	return visitorPass("corruption-fix", classify,
		func(kind, field string, depth int, class blocks.FieldClass, value any) (any, bool) {
			switch class {
			case blocks.ClassRichText:
				return decode(value)
			case blocks.ClassPlain:
				switch v := value.(type) {
				case string:
					if richtext.IsDoubleEncoded(v) {
						return richtext.ExtractPlainText(v), true
					}
				case map[string]any:
					if richtext.IsCanonicalFormat(v) && catalog.DeclaresText(kind, field, depth) {
						return richtext.ExtractPlainText(v), true
					}
				}
			}
			return nil, false
		},
		func(value any) any {
			if doc, ok := decode(value); ok {
				return doc
			}
			return value
		},
	)
}

// ValidationFix replaces rich-text documents the renderers cannot walk
// with the canonical empty document. Their content is lost.
func ValidationFix(classify blocks.Classifier) Pass {
	fix := func(value any) (any, bool) {
		doc, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		if _, hasRoot := doc["root"]; !hasRoot || richtext.IsStructurallyValid(doc) {
			return nil, false
		}
		return richtext.Empty(), true
	}
	return visitorPass("validation-fix", classify,
		func(_, _ string, _ int, class blocks.FieldClass, value any) (any, bool) {
			if class != blocks.ClassRichText {
				return nil, false
			}
			return fix(value)
		},
		func(value any) any {
			if out, ok := fix(value); ok {
				return out
			}
			return value
		},
	)
}
