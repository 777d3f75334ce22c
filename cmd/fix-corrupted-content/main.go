package main

import (
	"tessera/cmd/internal/job"
	"tessera/migrate"
)

func main() {
	job.Main(func() error {
		return job.RunPass("fix-corrupted-content", func(env *job.Env) migrate.Pass {
			return migrate.CorruptionFix(env.Catalog)
		})
	})
}
