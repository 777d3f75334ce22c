package richtext

// IsStructurallyValid checks the shape every renderer relies on: a root of
// type "root" with a children array, block nodes that have a type and a
// children array, and text runs whose text is a string.
func IsStructurallyValid(v any) bool {
	root := RootNode(v)
	if root == nil {
		return false
	}
	if t, _ := root["type"].(string); t != TypeRoot {
		return false
	}
	children, ok := root["children"].([]any)
	if !ok {
		return false
	}
	for _, raw := range children {
		node, ok := raw.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := node["type"].(string); !ok {
			return false
		}
		inline, ok := node["children"].([]any)
		if !ok {
			return false
		}
		for _, rawInline := range inline {
			leaf, ok := rawInline.(map[string]any)
			if !ok {
				return false
			}
			if nodeType(leaf) == TypeText {
				if _, ok := leaf["text"].(string); !ok {
					return false
				}
			}
		}
	}
	return true
}

// CollapseEmpty returns the canonical empty document when v is a document
// whose content is blank: a missing or null children list, or children that
// are all paragraphs without any text. changed reports whether v was
// replaced.
func CollapseEmpty(v any) (any, bool) {
	root := RootNode(v)
	if root == nil {
		return v, false
	}
	if t, _ := root["type"].(string); t != TypeRoot {
		return v, false
	}
	raw, present := root["children"]
	if !present || raw == nil {
		return Empty(), true
	}
	children, ok := raw.([]any)
	if !ok || len(children) == 0 {
		return v, false
	}
	for _, child := range children {
		if !isBlankParagraph(child) {
			return v, false
		}
	}
	return Empty(), true
}

func isBlankParagraph(v any) bool {
	node, ok := v.(map[string]any)
	if !ok || nodeType(node) != TypeParagraph {
		return false
	}
	raw, present := node["children"]
	if !present || raw == nil {
		return true
	}
	inline, ok := raw.([]any)
	if !ok {
		return false
	}
	for _, child := range inline {
		leaf, ok := child.(map[string]any)
		if !ok || nodeType(leaf) != TypeText {
			return false
		}
		if s, _ := leaf["text"].(string); s != "" {
			return false
		}
	}
	return true
}
