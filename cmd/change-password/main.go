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
	args, err := job.Args(job.Flags("change-password", "<email> <password>"), 2)
	if err != nil {
		return err
	}

	env, err := job.Open()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := admin.ChangePassword(env.DB, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Password changed for %s\n", args[0])
	return nil
}
