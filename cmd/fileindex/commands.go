package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/tree"
)

func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return tree.Clean(args[0])
}

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the items directly under path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.List(cmd.Context(), pathArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Items) == 0 {
				fmt.Fprintln(out, "This folder is empty")
				return nil
			}
			printItems(out, resp.Items)
			return nil
		},
	}
}

func printItems(out io.Writer, items []models.Item) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tMODIFIED\tID")
	for _, item := range items {
		size := "-"
		if !item.IsDir() {
			size = tree.FormatSize(item.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			tree.CategoryOf(item), item.Name, size,
			item.LastModified.Format("2006-01-02"), item.ID)
	}
	tw.Flush()
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the item hierarchy below path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := pathArg(args)
			fmt.Fprintln(cmd.OutOrStdout(), root)
			return a.printTree(cmd, root, tree.Depth(root))
		},
	}
}

// printTree indents each item by its depth below the root at base.
func (a *app) printTree(cmd *cobra.Command, path string, base int) error {
	resp, err := a.client.List(cmd.Context(), path)
	if err != nil {
		return err
	}
	for _, item := range resp.Items {
		indent := strings.Repeat("  ", tree.Depth(item.Path)-base)
		if item.IsDir() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s/\n", indent, item.Name)
			if err := a.printTree(cmd, item.Path, base); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s)\n", indent, item.Name, tree.FormatSize(item.Size))
	}
	return nil
}

func (a *app) segmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segments <path>",
		Short: "Print the breadcrumb segments of a path",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, seg := range tree.Segments(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", seg.Name, seg.Path)
			}
			return nil
		},
	}
}

func (a *app) downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>",
		Short: "Download a file (the server returns a placeholder body)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := a.client.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
}

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path> <name> [size]",
		Short: "Upload a file entry into the folder at path (USER or ADMIN)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var size int64
			if len(args) == 3 {
				n, err := strconv.ParseInt(args[2], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid size %q", args[2])
				}
				size = n
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			items, err := a.client.Upload(cmd.Context(), tree.Clean(args[0]), protocol.UploadFile{Name: args[1], Size: size})
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s)\n", item.Path, item.ID)
			}
			return nil
		},
	}
}

func (a *app) mkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path> <name>",
		Short: "Create a folder under path (ADMIN)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			item, err := a.client.CreateFolder(cmd.Context(), tree.Clean(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", item.Path, item.ID)
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item by id (ADMIN)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Restore the server's seed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.client.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d items\n", n)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.session.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("invalid credentials")
			}
			id := a.session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", id.Username, id.Role)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.session.IsAuthenticated() {
				if err := a.client.Logout(cmd.Context()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
				}
			}
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := a.session.Current()
			out := cmd.OutOrStdout()
			if id == nil {
				fmt.Fprintln(out, "not logged in")
				return nil
			}
			if verify {
				if err := a.client.Ping(cmd.Context()); err != nil {
					return fmt.Errorf("server unreachable: %w", err)
				}
				me, err := a.client.Me(cmd.Context())
				if err != nil {
					return err
				}
				if !me.Authenticated {
					if err := a.session.Logout(); err != nil {
						return err
					}
					fmt.Fprintln(out, "session expired; not logged in")
					return nil
				}
				a.session.Update(*me.User)
				id = me.User
			}
			fmt.Fprintf(out, "%s (%s)\n", id.Username, id.Role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the session with the server")
	return cmd
}

func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return errors.New(`not logged in; run "fileindex login" first`)
	}
	return nil
}

// parseRole parses an optional role argument; empty means unchanged.
func parseRole(s string) (models.Role, error) {
	if s == "" {
		return "", nil
	}
	return models.ParseRole(s)
}
