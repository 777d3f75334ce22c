package job

import (
	"context"

	"go.uber.org/zap"

	"tessera/migrate"
)

// RunPass applies the pass built by build to every target collection.
// Per-document failures are logged by the engine and do not fail the run.
func RunPass(name string, build func(env *Env) migrate.Pass) error {
	flags := Flags(name, "")
	if _, err := Args(flags, 0); err != nil {
		return err
	}

	env, err := Open()
	if err != nil {
		return err
	}
	defer env.Close()

	pass := build(env)
	engine := migrate.NewEngine(env.Store, env.Log, migrate.Options{})
	engine.OnChange = migrate.InvalidateCache(env.Store, env.Cache(), env.Log)

	report, err := engine.Run(context.Background(), pass, migrate.DefaultTargets)
	if err != nil {
		return err
	}
	env.Log.Info("pass complete",
		zap.String("pass", pass.Name),
		zap.Int("migrated", report.Migrated()),
		zap.Int("failed", report.Failed()))
	return nil
}
