package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnwards/crmimport/internal/store"
)

type userOptions struct {
	tenantID  int64
	email     string
	firstName string
	lastName  string
	limit     int
	after     int64
}

// newUserCmd manages the users that USERMAPPING emails resolve to.
func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the users records can be assigned to",
	}
	cmd.AddCommand(newUserAddCmd(a))
	cmd.AddCommand(newUserListCmd(a))
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var opts userOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user in a tenant",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			email := strings.TrimSpace(opts.email)
			if email == "" {
				return withCode(exitUsage, errors.New("--email must not be empty"))
			}

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if _, err := s.Tenants.Get(ctx, opts.tenantID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return withCode(exitUsage, fmt.Errorf("tenant %d does not exist", opts.tenantID))
				}
				return withCode(exitDB, err)
			}

			u, err := s.Users.Create(ctx, opts.tenantID, email, opts.firstName, opts.lastName)
			if err != nil {
				return withCode(exitDB, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user %d %s\n", u.ID, u.Email)
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.tenantID, "tenant", 0, "Tenant ID (required)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address as used in USERMAPPING (required)")
	cmd.Flags().StringVar(&opts.firstName, "first", "", "First name")
	cmd.Flags().StringVar(&opts.lastName, "last", "", "Last name")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	var opts userOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the users of a tenant",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			users, hasMore, next, err := s.Users.List(ctx, opts.tenantID, opts.limit, opts.after)
			if err != nil {
				return withCode(exitDB, err)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "EMAIL", "FIRST", "LAST", "ACTIVE")
			for _, u := range users {
				tw.row(u.ID, u.Email, u.FirstName, u.LastName, u.IsActive)
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

	cmd.Flags().Int64Var(&opts.tenantID, "tenant", 0, "Tenant ID (required)")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "Maximum number of users to list")
	cmd.Flags().Int64Var(&opts.after, "after", 0, "List users with an ID above this one")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
