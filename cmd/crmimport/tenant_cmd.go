package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTenantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a tenant",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			t, err := s.Tenants.Create(ctx, args[0])
			if err != nil {
				return withCode(exitDB, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tenant %d %s\n", t.ID, t.Name)
			return nil
		},
	})
	return cmd
}
