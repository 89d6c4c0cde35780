package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/history"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

func (a *app) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Append to or list the plan history",
	}
	cmd.AddCommand(a.newHistoryAddCmd(), a.newHistoryListCmd())
	return cmd
}

func (a *app) newHistoryAddCmd() *cobra.Command {
	var entry types.HistoryEntry
	cmd := &cobra.Command{
		Use:   "add <content>...",
		Short: "Append a plan history entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sink, err := history.Open(ctx, a.storeConfig(), a.logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			entry.Content = strings.Join(args, " ")
			stored, err := sink.Append(ctx, entry)
			if errors.Is(err, types.ErrInvalidEntry) {
				return userError("%s", err)
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, stored)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %s\n", stored.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry.Section, "section", "", "section name, such as allergies or plan (required)")
	cmd.Flags().StringVar(&entry.PatientID, "patient", "", "patient identifier")
	cmd.Flags().StringVar(&entry.EncounterDate, "encounter-date", "", "encounter date")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}

func (a *app) newHistoryListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent plan history entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sink, err := history.Open(ctx, a.storeConfig(), a.logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			entries, err := sink.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if entries == nil {
					entries = []types.HistoryEntry{}
				}
				return printJSON(cmd, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s\n", e.CreatedAt.Format(time.RFC3339), e.Section, e.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "maximum number of entries")
	return cmd
}
