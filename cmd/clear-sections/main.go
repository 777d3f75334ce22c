// clear-sections empties the sections of a tenant's pages and homepage.
package main

import (
	"context"

	"go.uber.org/zap"

	"tessera/cmd/internal/job"
	"tessera/migrate"
)

func main() {
	job.Main(run)
}

func run() error {
	var homepageOnly bool
	flags := job.Flags("clear-sections", "<code> [--homepage-only]")
	flags.BoolVar(&homepageOnly, "homepage-only", false, "clear only the homepage")
	args, err := job.Args(flags, 1)
	if err != nil {
		return err
	}

	env, err := job.Open()
	if err != nil {
		return err
	}
	defer env.Close()

	cleared, err := migrate.ClearSections(context.Background(), env.Store, args[0], homepageOnly, env.Log)
	if err != nil {
		return err
	}
	if err := env.Cache().InvalidateTenant(args[0]); err != nil {
		env.Log.Warn("cache invalidation failed", zap.String("tenant", args[0]), zap.Error(err))
	}
	env.Log.Info("sections cleared", zap.String("tenant", args[0]), zap.Int("documents", cleared))
	return nil
}
