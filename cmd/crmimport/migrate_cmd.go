package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnwards/crmimport/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and seed the default tenant",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			version, err := database.Version(ctx, s.DB)
			if err != nil {
				return withCode(exitDB, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database %s at schema version %d\n", a.cfg.DBPath, version)
			return nil
		},
	}
}
