package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tessera/store"
)

// ClearSections empties the sections of every page and the homepage of a
// tenant, or only the homepage when homepageOnly is set. Each document
// keeps its previous sections in its version history. It returns how many
// documents were cleared.
func ClearSections(ctx context.Context, st *store.Store, code string, homepageOnly bool, log *zap.Logger) (int, error) {
	tenant, err := st.FindOne(ctx, store.Tenants, store.Filter{"code": code}, store.FindOptions{OverrideAccess: true})
	if err != nil {
		return 0, fmt.Errorf("tenant %q: %w", code, err)
	}

	collections := []string{store.Homepages}
	if !homepageOnly {
		collections = append(collections, store.Pages)
	}

	cleared := 0
	for _, collection := range collections {
		for page := 1; ; page++ {
			res, err := st.Find(ctx, collection, store.Filter{"tenant": tenant.ID()}, store.FindOptions{
				Limit:          DefaultBatchSize,
				Page:           page,
				OverrideAccess: true,
			})
			if err != nil {
				return cleared, fmt.Errorf("scan %s: %w", collection, err)
			}
			for _, doc := range res.Docs {
				if sections, _ := doc["sections"].([]any); len(sections) == 0 {
					continue
				}
				if _, err := st.Update(ctx, collection, doc.ID(), store.Doc{"sections": []any{}}, store.WriteOptions{OverrideAccess: true}); err != nil {
					log.Error("failed to clear sections",
						zap.String("collection", collection),
						zap.String("id", doc.ID()),
						zap.Error(err))
					continue
				}
				cleared++
				log.Info("sections cleared", zap.String("collection", collection), zap.String("slug", doc.String("slug")))
			}
			if !res.HasNextPage {
				break
			}
		}
	}
	return cleared, nil
}
