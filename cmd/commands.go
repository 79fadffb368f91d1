package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nmprofiles/menutree"
	"nmprofiles/profilemenu"
)

func newMenuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Build both branches and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck
			return printMenu(cmd.Context(), cmd.OutOrStdout(), a.resolver, a.tree)
		},
	}
}

func newRoomsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List the configured rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck
			if len(a.cfg.Rooms) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No rooms configured in %s\n", a.configPath)
				return nil
			}
			for _, room := range a.cfg.Rooms {
				fmt.Fprintln(cmd.OutOrStdout(), room)
			}
			return nil
		},
	}
}

// printMenu activates every branch and writes its nodes. Non-fatal activation errors are printed inline.
func printMenu(ctx context.Context, w io.Writer, resolver *profilemenu.Resolver, tree *menutree.Tree) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, kind := range []profilemenu.Kind{profilemenu.KindWifi, profilemenu.KindRoom} {
		_, err := resolver.Activate(ctx, kind)
		branch := tree.Lookup(kind.Branch())
		if branch == nil || errors.Is(err, profilemenu.ErrConfigurationMissing) {
			fmt.Fprintf(w, "%s: not configured\n", kind.Branch())
			continue
		}

		fmt.Fprintf(w, "%s\n", branch.Title())
		if err != nil {
			fmt.Fprintf(w, "  (%v)\n", err)
		}
		nodes := branch.Nodes()
		if len(nodes) == 0 && err == nil {
			fmt.Fprintln(w, "  (empty)")
		}
		for _, n := range nodes {
			if n.Summary != "" {
				fmt.Fprintf(w, "  %-32s %s\n", n.Title, n.Summary)
			} else {
				fmt.Fprintf(w, "  %s\n", n.Title)
			}
		}
	}
	return nil
}
