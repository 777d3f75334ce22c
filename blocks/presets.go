package blocks

import "strings"

// Preset returns a new block of the given kind with every field set to its
// initial value. Kinds missing from the catalog get only the metadata.
func (c *Catalog) Preset(kind string) map[string]any {
	preset := map[string]any{
		kindKey:       kind,
		deprecatedKey: false,
		versionKey:    CurrentSchemaVersion,
	}
	if k, ok := c.Lookup(kind); ok {
		for _, f := range k.Fields {
			preset[f.Name] = f.Initial()
		}
	}
	return preset
}

// Presets returns one preset per kind of the tenant.
func (c *Catalog) Presets(tenant string) []map[string]any {
	kinds := c.Kinds(tenant)
	out := make([]map[string]any, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, c.Preset(k.Name))
	}
	return out
}

// HomepageWarnings lists structural problems worth pointing out on a
// homepage's sections. None of them block saving.
func HomepageWarnings(sections any) []string {
	items, _ := sections.([]any)
	if len(items) == 0 {
		return []string{"homepage has no sections; consider adding at least one hero block"}
	}
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if kind, _, ok := KindOf(block); ok && (kind == "hero" || strings.HasSuffix(kind, ".hero")) {
			return nil
		}
	}
	return []string{"homepage has no hero block"}
}

// PageWarnings lists structural problems of a page's sections.
func PageWarnings(sections any) []string {
	items, _ := sections.([]any)
	if len(items) == 0 {
		return []string{"page has no sections and will render empty"}
	}
	return nil
}
