package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/admin-console/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the local session and snapshot store migrations",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateRollback {
		err = db.Rollback(ctx)
	} else {
		err = db.Migrate(ctx)
	}
	if err != nil {
		return err
	}

	version, err := db.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s store at version %d\n", db.Driver, version)
	return nil
}
