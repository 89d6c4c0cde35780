package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/search"
)

const defaultSearchLimit = 10

func (a *app) newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <pattern>...",
		Short: "Fuzzy-search item text across all categories",
		Args:  cobra.MinimumNArgs(1),
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
			hits := search.Items(doc, strings.Join(args, " "), limit)
			if a.flags.jsonMode {
				if hits == nil {
					hits = []search.Hit{}
				}
				return printJSON(cmd, hits)
			}
			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				return nil
			}
			for _, h := range hits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s / %s / %s\n", h.Category, h.Group, h.Item)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultSearchLimit, "maximum number of matches (0 for all)")
	return cmd
}
