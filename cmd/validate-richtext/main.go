// validate-richtext replaces structurally invalid rich text with the empty
// document.
package main

import (
	"tessera/blocks"
	"tessera/cmd/internal/job"
	"tessera/migrate"
)

func main() {
	job.Main(func() error {
		return job.RunPass("validate-richtext", func(env *job.Env) migrate.Pass {
			return migrate.ValidationFix(blocks.NewClassifier(env.Catalog))
		})
	})
}
