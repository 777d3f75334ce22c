// fix-empty-richtext collapses rich text without content into the empty
// document.
package main

import (
	"tessera/blocks"
	"tessera/cmd/internal/job"
	"tessera/migrate"
)

func main() {
	job.Main(func() error {
		return job.RunPass("fix-empty-richtext", func(env *job.Env) migrate.Pass {
			return migrate.EmptyStructureFix(blocks.NewClassifier(env.Catalog))
		})
	})
}
