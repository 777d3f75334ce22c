package media

import (
	"context"
	"strings"

	"tessera/blocks"
	"tessera/store"
)

// Populator expands media ids found in image fields into media objects
// ({id, url, alt, width, height, filename}). It plugs into store.Store and
// runs for reads with Depth >= 1.
type Populator struct {
	store *store.Store
}

func NewPopulator(st *store.Store) *Populator {
	return &Populator{store: st}
}

// mediaIDs classifies image fields that still hold a bare media id.
func mediaIDs(_, field string, _ int, value any) blocks.FieldClass {
	s, ok := value.(string)
	if !ok || s == "" || !blocks.IsImageFieldName(field) {
		return blocks.ClassPlain
	}
	if strings.HasPrefix(s, "/") || strings.Contains(s, "://") {
		return blocks.ClassPlain
	}
	return blocks.ClassImage
}

func (p *Populator) Populate(ctx context.Context, collection string, doc store.Doc) store.Doc {
	if collection == store.Media {
		return doc
	}
	found := map[string]map[string]any{}
	out, changed := blocks.Walk("", doc, mediaIDs, func(_, _ string, _ int, class blocks.FieldClass, value any) (any, bool) {
		if class != blocks.ClassImage {
			return nil, false
		}
		id := value.(string)
		if m, ok := found[id]; ok {
			return m, m != nil
		}
		media, err := p.store.FindByID(ctx, store.Media, id, store.FindOptions{OverrideAccess: true})
		if err != nil {
			found[id] = nil
			return nil, false
		}
		m := map[string]any{"id": id}
		for _, key := range []string{"url", "alt", "width", "height", "filename", "mimeType"} {
			if v, ok := media[key]; ok {
				m[key] = v
			}
		}
		found[id] = m
		return m, true
	})
	if !changed {
		return doc
	}
	return out
}
