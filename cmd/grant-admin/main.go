// grant-admin gives a user the admin role.
package main

import (
	"fmt"

	"tessera/admin"
	"tessera/cmd/internal/job"
)

func main() {
	job.Main(run)
}

func run() error {
	args, err := job.Args(job.Flags("grant-admin", "<email>"), 1)
	if err != nil {
		return err
	}

	env, err := job.Open()
	if err != nil {
		return err
	}
	defer env.Close()

	granted, err := admin.GrantAdmin(env.DB, args[0])
	if err != nil {
		return err
	}
	if !granted {
		fmt.Printf("%s is already an admin\n", args[0])
		return nil
	}
	fmt.Printf("Granted admin to %s\n", args[0])
	return nil
}
