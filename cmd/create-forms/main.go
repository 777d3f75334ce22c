// create-forms adds the default contact and registration forms to a
// tenant. Forms that already exist are left alone.
package main

import (
	"context"
	"fmt"

	"tessera/cmd/internal/job"
	"tessera/forms"
	"tessera/store"
)

func main() {
	job.Main(run)
}

func run() error {
	args, err := job.Args(job.Flags("create-forms", "<code>"), 1)
	if err != nil {
		return err
	}

	env, err := job.Open()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	tenant, err := env.Store.FindOne(ctx, store.Tenants, store.Filter{"code": args[0]}, store.FindOptions{OverrideAccess: true})
	if err != nil {
		return fmt.Errorf("tenant %q: %w", args[0], err)
	}

	created, err := forms.EnsureDefaults(ctx, env.Store, tenant.ID(), env.Log)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d form(s) for %s\n", created, args[0])
	return nil
}
