package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/johnwards/crmimport/internal/store"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the import run ledger",
	}
	cmd.AddCommand(newRunsListCmd(a))
	cmd.AddCommand(newRunsShowCmd(a))
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int
	var after int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List import runs, oldest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			imports, hasMore, next, err := s.Imports.List(ctx, limit, after)
			if err != nil {
				return withCode(exitDB, err)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "RUN", "STATE", "MODEL", "TENANT", "FILE", "STARTED")
			for _, imp := range imports {
				tw.row(imp.ID, imp.RunID, imp.State, imp.Model, imp.TenantID, imp.FileName, imp.CreatedAt)
			}
			if err := tw.flush(); err != nil {
				return err
			}
			if hasMore {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "more: --after %d\n", next)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of runs to list")
	cmd.Flags().Int64Var(&after, "after", 0, "List runs with an ID above this one")
	return cmd
}

type runReport struct {
	*store.Import
	Errors []*store.ImportError `json:"errors"`
}

func newRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an import run and the rows it skipped as JSON",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid import id %q: %w", args[0], err))
			}

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			imp, err := s.Imports.Get(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return withCode(exitUsage, fmt.Errorf("import %d not found", id))
				}
				return withCode(exitDB, err)
			}
			errs, err := s.Imports.GetErrors(ctx, id)
			if err != nil {
				return withCode(exitDB, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(runReport{Import: imp, Errors: errs})
		},
	}
}
