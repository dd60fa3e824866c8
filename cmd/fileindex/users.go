package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the admin user directory (ADMIN)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}
	cmd.AddCommand(a.usersListCmd(), a.usersShowCmd(), a.usersAddCmd(), a.usersEditCmd(), a.usersRmCmd())
	return cmd
}

func (a *app) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List directory accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
}

func (a *app) usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02"))
			return nil
		},
	}
}

func (a *app) usersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username> <password> [role]",
		Short: "Add an account (role defaults to USER)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var roleArg string
			if len(args) == 3 {
				roleArg = args[2]
			}
			role, err := parseRole(roleArg)
			if err != nil {
				return err
			}
			u, err := a.client.CreateUser(cmd.Context(), args[0], args[1], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) as %s\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
}

func (a *app) usersEditCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "edit <id> <username>",
		Short: "Rename an account and optionally change its role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			u, err := a.client.UpdateUser(cmd.Context(), args[0], args[1], r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s (%s)\n", u.ID, u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "new role (admin or user)")
	return cmd
}

func (a *app) usersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.DeleteUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
}
