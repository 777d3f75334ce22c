// scaffold-tenant writes a starter block catalog for a new tenant to
// TENANTS_DIR/<code>/catalog.yaml.
package main

import (
	"fmt"

	"tessera/cmd/internal/job"
	"tessera/common"
	"tessera/scaffold"
)

func main() {
	job.Main(run)
}

func run() error {
	args, err := job.Args(job.Flags("scaffold-tenant", "<code>"), 1)
	if err != nil {
		return err
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	log, err := common.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	path, err := scaffold.Tenant(cfg.TenantsDir, args[0], log)
	if err != nil {
		return err
	}
	fmt.Printf("Tenant %q scaffolded. Add block kinds to %s and restart the server.\n", args[0], path)
	return nil
}
