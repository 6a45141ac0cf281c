package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/igreja/storage/database"
)

var migrateFunc = database.Run // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			if err := migrateFunc(cmd.Context(), cli.db, args[0], args[1:]...); err != nil {
				return err
			}
			cli.printf("migrate %s: done\n", args[0])
			return nil
		},
	}
}
