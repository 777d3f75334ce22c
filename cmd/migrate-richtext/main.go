// migrate-richtext converts legacy and plain-text rich text in pages,
// homepages and posts to canonical documents and fills in block defaults.
package main

import (
	"tessera/blocks"
	"tessera/cmd/internal/job"
	"tessera/migrate"
)

func main() {
	job.Main(func() error {
		return job.RunPass("migrate-richtext", func(env *job.Env) migrate.Pass {
			return migrate.FormatMigration(blocks.NewNormalizer(env.Catalog, env.Log))
		})
	})
}
