package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

func (a *app) newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category names in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := repo.OrderedCategories(ctx)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [category]",
		Short: "Print the reference tree, or one category of it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := repo.Snapshot(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				doc = filterCategory(doc, args[0])
				if len(doc.Categories) == 0 {
					return userError("category %q not found", args[0])
				}
			}
			if a.flags.jsonMode {
				return printJSON(cmd, doc)
			}
			out := cmd.OutOrStdout()
			for _, c := range doc.Categories {
				fmt.Fprintln(out, c.Name)
				for _, g := range c.Groups {
					fmt.Fprintf(out, "  %s\n", g.Title)
					for _, it := range g.Items {
						fmt.Fprintf(out, "    - %s\n", it)
					}
				}
			}
			return nil
		},
	}
}

func filterCategory(doc types.Document, name string) types.Document {
	for _, c := range doc.Categories {
		if c.Name == name {
			return types.Document{Categories: []types.DocumentCategory{c}}
		}
	}
	return types.Document{}
}
