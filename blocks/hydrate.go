package blocks

// HydrateMedia replaces image URLs inside a block with the media ids they
// were uploaded as. URLs missing from mapping are left in place and
// returned in missing.
func HydrateMedia(block map[string]any, mapping map[string]string, classify Classifier) (out map[string]any, missing []string) {
	kind, _, _ := KindOf(block)
	out, _ = Walk(kind, block, classify, func(kind, field string, depth int, class FieldClass, value any) (any, bool) {
		if class != ClassImage {
			return nil, false
		}
		src, _ := value.(string)
		id, ok := mapping[src]
		if !ok {
			missing = append(missing, src)
			return nil, false
		}
		return id, true
	})
	return out, missing
}
