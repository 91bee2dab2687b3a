package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command against the embedded migrations",
		Long: `Run a goose command against the embedded migrations.

Commands:
  up                   Migrate the DB to the most recent version available
  up-by-one            Migrate the DB up by 1
  up-to VERSION        Migrate the DB to a specific VERSION
  down                 Roll back the version by 1
  down-to VERSION      Roll back to a specific VERSION
  redo                 Re-run the latest migration
  reset                Roll back all migrations
  status               Dump the migration status for the current DB
  version              Print the current version of the database
  fix                  Apply sequential ordering to migrations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			ctx := cli.context()
			db, err := cli.database(ctx)
			if err != nil {
				return err
			}
			return gooseRunFunc(ctx, db, args[0], args[1:]...)
		},
	}
}
