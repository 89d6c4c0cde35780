package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/refdata"
)

func (a *app) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a category, group, or item and commit",
	}
	cmd.AddCommand(
		a.newMutationCmd("category <name>", "Add a category", 1,
			func(cmd *cobra.Command, repo *refdata.Repository, args []string) error {
				return repo.AddCategory(cmd.Context(), args[0])
			}),
		a.newMutationCmd("group <category> <title>", "Add a group to a category", 2,
			func(cmd *cobra.Command, repo *refdata.Repository, args []string) error {
				return repo.AddGroup(cmd.Context(), args[0], args[1])
			}),
		a.newMutationCmd("item <category> <group> <text>...", "Add an item to a group", 3,
			func(cmd *cobra.Command, repo *refdata.Repository, args []string) error {
				return repo.AddItem(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
			}),
	)
	return cmd
}

// newMutationCmd builds a subcommand that applies mutate to the repository
// and commits. minArgs is exact for every form except item, whose text may
// span several arguments.
func (a *app) newMutationCmd(use, short string, minArgs int, mutate func(*cobra.Command, *refdata.Repository, []string) error) *cobra.Command {
	validate := cobra.ExactArgs(minArgs)
	if strings.HasSuffix(use, "...") {
		validate = cobra.MinimumNArgs(minArgs)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  validate,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := mutate(cmd, repo, args); err != nil {
				return err
			}
			changed, err := commit(ctx, repo)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]bool{"changed": changed})
			}
			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Added")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Unchanged (already present, blank, or parent not found)")
			}
			return nil
		},
	}
}

func (a *app) newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an item and commit",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "item <category> <group> <text>...",
		Short: "Remove the first item in a group with the given text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			text := strings.Join(args[2:], " ")
			item, err := repo.FindItem(ctx, args[0], args[1], text)
			if err != nil {
				return err
			}
			if item == nil {
				return userError("item %q not found in %s / %s", text, args[0], args[1])
			}
			repo.RemoveItem(item)
			if _, err := commit(ctx, repo); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed")
			return nil
		},
	})
	return cmd
}
